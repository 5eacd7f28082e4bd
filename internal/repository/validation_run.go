package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/variant-actionability/assessor/internal/domain"
)

// ValidationRunStore persists ValidationRun summaries produced by
// internal/validator, reusing the JSONB marshal/unmarshal idiom the teacher
// applied to interpretations' applied_rules/evidence_summary/report_data
// columns, here for the Metrics field.
type ValidationRunStore struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

func NewValidationRunStore(db *pgxpool.Pool, logger *logrus.Logger) *ValidationRunStore {
	return &ValidationRunStore{db: db, log: logger}
}

// Create inserts a new validation run summary.
func (s *ValidationRunStore) Create(ctx context.Context, run *domain.ValidationRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	metricsJSON, err := json.Marshal(run.Metrics)
	if err != nil {
		return fmt.Errorf("marshaling validation metrics: %w", err)
	}

	query := `
		INSERT INTO validation_runs (
			id, started_at, completed_at, dataset_name, max_concurrent, metrics
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)`

	_, err = s.db.Exec(ctx, query,
		run.ID,
		run.StartedAt,
		run.CompletedAt,
		run.DatasetName,
		run.MaxConcurrent,
		metricsJSON,
	)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"validation_run_id": run.ID,
			"dataset":           run.DatasetName,
			"error":             err,
		}).Error("failed to create validation run")
		return fmt.Errorf("creating validation run: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"validation_run_id": run.ID,
		"dataset":           run.DatasetName,
		"accuracy":          run.Metrics.Accuracy,
	}).Info("validation run recorded")

	return nil
}

// GetByID retrieves one validation run summary by its UUID.
func (s *ValidationRunStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ValidationRun, error) {
	query := `
		SELECT id, started_at, completed_at, dataset_name, max_concurrent, metrics
		FROM validation_runs
		WHERE id = $1`

	var run domain.ValidationRun
	var metricsJSON []byte
	var startedAt, completedAt time.Time

	err := s.db.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&startedAt,
		&completedAt,
		&run.DatasetName,
		&run.MaxConcurrent,
		&metricsJSON,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("validation run not found: %w", domain.ErrNotFound)
		}
		s.log.WithFields(logrus.Fields{"validation_run_id": id, "error": err}).Error("failed to get validation run")
		return nil, fmt.Errorf("getting validation run by id: %w", err)
	}

	if err := json.Unmarshal(metricsJSON, &run.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshaling validation metrics: %w", err)
	}
	run.StartedAt = startedAt
	run.CompletedAt = completedAt

	return &run, nil
}

// GetByDataset returns every run recorded against a named gold-standard
// dataset, most recent first.
func (s *ValidationRunStore) GetByDataset(ctx context.Context, datasetName string, limit, offset int) ([]*domain.ValidationRun, error) {
	query := `
		SELECT id, started_at, completed_at, dataset_name, max_concurrent, metrics
		FROM validation_runs
		WHERE dataset_name = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.Query(ctx, query, datasetName, limit, offset)
	if err != nil {
		s.log.WithFields(logrus.Fields{"dataset": datasetName, "error": err}).Error("failed to get validation runs by dataset")
		return nil, fmt.Errorf("getting validation runs by dataset: %w", err)
	}
	defer rows.Close()

	var runs []*domain.ValidationRun
	for rows.Next() {
		var run domain.ValidationRun
		var metricsJSON []byte
		var startedAt, completedAt time.Time

		if err := rows.Scan(
			&run.ID,
			&startedAt,
			&completedAt,
			&run.DatasetName,
			&run.MaxConcurrent,
			&metricsJSON,
		); err != nil {
			s.log.WithFields(logrus.Fields{"dataset": datasetName, "error": err}).Error("failed to scan validation run row")
			return nil, fmt.Errorf("scanning validation run row: %w", err)
		}
		if err := json.Unmarshal(metricsJSON, &run.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshaling validation metrics: %w", err)
		}
		run.StartedAt = startedAt
		run.CompletedAt = completedAt
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating validation run rows: %w", err)
	}

	return runs, nil
}

// Delete removes a validation run summary.
func (s *ValidationRunStore) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM validation_runs WHERE id = $1`

	result, err := s.db.Exec(ctx, query, id)
	if err != nil {
		s.log.WithFields(logrus.Fields{"validation_run_id": id, "error": err}).Error("failed to delete validation run")
		return fmt.Errorf("deleting validation run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("validation run not found: %w", domain.ErrNotFound)
	}

	s.log.WithFields(logrus.Fields{"validation_run_id": id}).Info("validation run deleted")
	return nil
}
