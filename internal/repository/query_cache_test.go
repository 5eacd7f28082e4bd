package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/variant-actionability/assessor/internal/domain"
)

func TestQueryCache_MissThenHit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	qc := NewQueryCacheWithDB(db, time.Minute, logger)

	assessment := domain.Assessment{Gene: "BRAF", Variant: "p.V600E", TumorType: "melanoma", Tier: domain.TierI}
	assessmentJSON, err := json.Marshal(assessment)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "created_at", "request_id", "engine_version", "assessment"}).
		AddRow("rec-1", time.Now(), "req-1", "v1", assessmentJSON)

	mock.ExpectQuery("SELECT (.+) FROM assessments").
		WithArgs("BRAF", "p.V600E", "melanoma").
		WillReturnRows(rows)

	ctx := context.Background()
	record, hit, err := qc.Lookup(ctx, "BRAF", "p.V600E", "melanoma")
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, "BRAF", record.Assessment.Gene)

	// Second lookup for the same triple must be served from the in-process
	// cache — sqlmock would fail the test if a second query were issued.
	record2, hit2, err := qc.Lookup(ctx, "BRAF", "p.V600E", "melanoma")
	require.NoError(t, err)
	require.True(t, hit2)
	require.Equal(t, record.Assessment.Gene, record2.Assessment.Gene)

	require.NoError(t, mock.ExpectationsWereMet())

	hits, misses := qc.Stats()
	require.Equal(t, int64(1), hits)
	require.Equal(t, int64(1), misses)
}

func TestQueryCache_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	qc := NewQueryCacheWithDB(db, time.Minute, logger)

	mock.ExpectQuery("SELECT (.+) FROM assessments").
		WithArgs("KRAS", "p.G12D", "pancreatic cancer").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "request_id", "engine_version", "assessment"}))

	_, hit, err := qc.Lookup(context.Background(), "KRAS", "p.G12D", "pancreatic cancer")
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, mock.ExpectationsWereMet())
}
