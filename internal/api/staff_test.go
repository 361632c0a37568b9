package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/store"
)

func staffColumns() []string {
	return []string{"id", "name", "phone", "email", "role", "team_ids", "on_duty", "shift", "zone", "active", "created_at", "updated_at"}
}

func TestStaffCreateValidation(t *testing.T) {
	handler := &StaffHandler{Log: zap.NewNop()}

	cases := []struct {
		name string
		body map[string]interface{}
		want string
	}{
		{
			name: "missing name",
			body: map[string]interface{}{"phone": "+919876543210", "role": "staff", "shift": "green", "zone": "North"},
			want: "name is required",
		},
		{
			name: "bad phone",
			body: map[string]interface{}{"name": "Asha", "phone": "98765", "role": "staff", "shift": "green", "zone": "North"},
			want: "phone must be E.164",
		},
		{
			name: "bad role",
			body: map[string]interface{}{"name": "Asha", "phone": "+919876543210", "role": "wizard", "shift": "green", "zone": "North"},
			want: "unknown role",
		},
		{
			name: "missing zone",
			body: map[string]interface{}{"name": "Asha", "phone": "+919876543210", "role": "staff", "shift": "green"},
			want: "zone is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := json.Marshal(tc.body)
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/api/staff", bytes.NewReader(payload))
			rec := httptest.NewRecorder()
			handler.Create(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			require.Equal(t, tc.want, resp.Error)
		})
	}
}

func TestStaffCreateHappyPath(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO staff")).
		WillReturnRows(sqlmock.NewRows(staffColumns()).
			AddRow("s-1", "Asha Verma", "+919876543210", nil, "supervisor", "{}", false, "orange", "North", true, now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO staff_audit")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	handler := &StaffHandler{Store: store.NewStaffStore(db), Log: zap.NewNop()}

	body := `{"name":"Asha Verma","phone":"+919876543210","role":"supervisor","shift":"orange","zone":"North"}`
	req := httptest.NewRequest(http.MethodPost, "/api/staff", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var member store.StaffMember
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&member))
	require.Equal(t, "s-1", member.ID)
	require.True(t, member.Active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows(staffColumns()))

	router := NewRouter(Deps{
		Staff:    store.NewStaffStore(db),
		Verifier: staticVerifier{},
		Log:      zap.NewNop(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/staff/s-404", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
