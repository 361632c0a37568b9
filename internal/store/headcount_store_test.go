package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/groundcrewhq/groundcrew/internal/models"
)

func headcountColumns() []string {
	return []string{"id", "zone", "count", "source", "confidence", "recorded_at"}
}

func TestHeadcountStoreRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	recordedAt := time.Date(2026, 2, 14, 8, 30, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO headcounts")).
		WithArgs("North", 12000, "manual", 0.9, recordedAt).
		WillReturnRows(sqlmock.NewRows(headcountColumns()).
			AddRow("hc-1", "North", 12000, "manual", 0.9, recordedAt))

	store := NewHeadcountStore(db)
	headcount, err := store.Record(context.Background(), HeadcountParams{
		Zone:       "North",
		Count:      12000,
		Source:     models.SourceManual,
		Confidence: 0.9,
		RecordedAt: recordedAt,
	})
	require.NoError(t, err)
	require.Equal(t, "North", headcount.Zone)
	require.Equal(t, 12000, headcount.Count)
	require.Equal(t, models.SourceManual, headcount.Source)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHeadcountStoreLatestForZone(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY recorded_at DESC")).
		WithArgs("North").
		WillReturnRows(sqlmock.NewRows(headcountColumns()).
			AddRow("hc-2", "North", 8400, "api", 0.75, now))

	store := NewHeadcountStore(db)
	headcount, err := store.LatestForZone(context.Background(), "North")
	require.NoError(t, err)
	require.Equal(t, 8400, headcount.Count)
	require.Equal(t, models.SourceAPI, headcount.Source)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHeadcountStoreLatestForZoneNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY recorded_at DESC")).
		WithArgs("Ghost").
		WillReturnRows(sqlmock.NewRows(headcountColumns()))

	store := NewHeadcountStore(db)
	_, err = store.LatestForZone(context.Background(), "Ghost")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHeadcountStoreLatestPerZone(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("DISTINCT ON (zone)")).
		WillReturnRows(sqlmock.NewRows(headcountColumns()).
			AddRow("hc-3", "East", 2000, "estimated", 0.5, now).
			AddRow("hc-4", "North", 12000, "manual", 0.9, now))

	store := NewHeadcountStore(db)
	latest, err := store.LatestPerZone(context.Background())
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.Equal(t, "East", latest[0].Zone)
	require.Equal(t, "North", latest[1].Zone)
	require.NoError(t, mock.ExpectationsWereMet())
}
