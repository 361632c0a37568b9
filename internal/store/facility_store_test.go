package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/groundcrewhq/groundcrew/internal/models"
)

func facilityColumns() []string {
	return []string{"id", "code", "type", "zone", "latitude", "longitude", "capacity", "status", "deleted", "created_at", "updated_at"}
}

func facilityRow(id, code, status string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(facilityColumns()).
		AddRow(id, code, "toilet", "North", 25.44, 81.84, nil, status, false, now, now)
}

func TestFacilityStoreCreateDuplicateCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO facilities")).
		WillReturnError(&pq.Error{Code: "23505"})

	store := NewFacilityStore(db)
	_, err = store.Create(context.Background(), FacilityParams{
		Code: "TLT-N-014",
		Type: models.FacilityToilet,
		Zone: "North",
	})
	require.ErrorIs(t, err, ErrDuplicateCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFacilityStoreTransitionRejectsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("f-1").
		WillReturnRows(facilityRow("f-1", "TLT-N-014", "available"))
	mock.ExpectRollback()

	store := NewFacilityStore(db)
	_, _, err = store.Transition(context.Background(), "f-1", models.FacilityAvailable)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFacilityStoreTransitionUnknownStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("f-1").
		WillReturnRows(facilityRow("f-1", "TLT-N-014", "available"))
	mock.ExpectRollback()

	store := NewFacilityStore(db)
	_, _, err = store.Transition(context.Background(), "f-1", models.FacilityStatus("broken"))
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFacilityStoreSoftDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("SET deleted = true")).
		WithArgs("f-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewFacilityStore(db)
	require.ErrorIs(t, store.SoftDelete(context.Background(), "f-404"), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
