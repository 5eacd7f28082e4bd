package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/variant-actionability/assessor/internal/database"
	"github.com/variant-actionability/assessor/internal/domain"
)

// generateTestPassword creates a secure random password for test databases.
func generateTestPassword() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "test_fallback_password_123"
	}
	return "test_" + hex.EncodeToString(bytes)
}

func setupTestDB(t *testing.T) (*database.DB, func()) {
	ctx := context.Background()
	testPassword := generateTestPassword()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "starting postgres container")

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	config := database.Config{
		Host:        host,
		Port:        port.Int(),
		Database:    "testdb",
		Username:    "testuser",
		Password:    testPassword,
		MaxConns:    10,
		MinConns:    2,
		MaxConnLife: time.Hour,
		MaxConnIdle: time.Minute * 30,
		SSLMode:     "disable",
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	db, err := database.NewConnection(ctx, config, logger)
	require.NoError(t, err)

	databaseURL := "postgres://testuser:" + testPassword + "@" + host + ":" + port.Port() + "/testdb?sslmode=disable"
	migrationRunner, err := database.NewMigrationRunner(databaseURL, "../../migrations", logger)
	require.NoError(t, err)
	require.NoError(t, migrationRunner.Up(ctx))

	cleanup := func() {
		migrationRunner.Close()
		db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	}

	return db, cleanup
}

func newTestAssessment(gene, variant, tumorType string, tier domain.Tier) *domain.AssessmentRecord {
	return &domain.AssessmentRecord{
		RequestID:     "req-1",
		EngineVersion: "test",
		Assessment: domain.Assessment{
			Gene:            gene,
			Variant:         variant,
			TumorType:       tumorType,
			Tier:            tier,
			ConfidenceScore: 0.9,
			Summary:         "test summary",
			Rationale:       "test rationale",
		},
	}
}

func TestAssessmentStore_CreateAndGetByID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	store := NewAssessmentStore(db.Pool, logger)

	record := newTestAssessment("BRAF", "p.V600E", "melanoma", domain.TierI)

	ctx := context.Background()
	require.NoError(t, store.Create(ctx, record))

	uid, err := uuid.Parse(record.ID)
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, record.ID, retrieved.ID)
	require.Equal(t, "BRAF", retrieved.Assessment.Gene)
	require.Equal(t, domain.TierI, retrieved.Assessment.Tier)
}

func TestAssessmentStore_GetByGeneVariant(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	store := NewAssessmentStore(db.Pool, logger)

	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newTestAssessment("BRAF", "p.V600E", "melanoma", domain.TierI)))
	require.NoError(t, store.Create(ctx, newTestAssessment("BRAF", "p.V600E", "colorectal cancer", domain.TierII)))
	require.NoError(t, store.Create(ctx, newTestAssessment("EGFR", "p.L858R", "lung adenocarcinoma", domain.TierI)))

	records, err := store.GetByGeneVariant(ctx, "BRAF", "p.V600E", 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		require.Equal(t, "BRAF", r.Assessment.Gene)
		require.Equal(t, "p.V600E", r.Assessment.Variant)
	}
}

func TestAssessmentStore_Delete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	store := NewAssessmentStore(db.Pool, logger)

	ctx := context.Background()
	record := newTestAssessment("KRAS", "p.G12C", "lung adenocarcinoma", domain.TierI)
	require.NoError(t, store.Create(ctx, record))

	uid, err := uuid.Parse(record.ID)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, uid))

	_, err = store.GetByID(ctx, uid)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestValidationRunStore_CreateAndGetByID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	store := NewValidationRunStore(db.Pool, logger)

	run := &domain.ValidationRun{
		StartedAt:     time.Now().UTC(),
		CompletedAt:   time.Now().UTC(),
		DatasetName:   "gold-standard-v1",
		MaxConcurrent: 3,
		Metrics: domain.ValidationMetrics{
			TotalCases:         2,
			CorrectPredictions: 1,
			Accuracy:           0.5,
		},
	}

	ctx := context.Background()
	require.NoError(t, store.Create(ctx, run))

	uid, err := uuid.Parse(run.ID)
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, run.DatasetName, retrieved.DatasetName)
	require.Equal(t, 2, retrieved.Metrics.TotalCases)
}
