// Package repository persists AssessmentRecord and ValidationRun audit rows
// (SPEC_FULL.md's [ADDED] audit-log component). Grounded on the teacher's
// internal/repository CRUD idiom (pgx.ErrNoRows -> domain.ErrNotFound,
// structured logrus logging on every error/success path) adapted from
// variant.go onto this domain's AssessmentRecord.
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

// AssessmentStore persists AssessmentRecord rows for audit and later
// retrieval by gene/variant (GET /v1/assessments/:gene/:variant).
type AssessmentStore struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

func NewAssessmentStore(db *pgxpool.Pool, logger *logrus.Logger) *AssessmentStore {
	return &AssessmentStore{db: db, log: logger}
}

// Create inserts a new assessment record, generating an ID if one is unset.
func (s *AssessmentStore) Create(ctx context.Context, record *domain.AssessmentRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	assessmentJSON, err := json.Marshal(record.Assessment)
	if err != nil {
		return fmt.Errorf("marshaling assessment: %w", err)
	}

	query := `
		INSERT INTO assessments (
			id, created_at, request_id, engine_version, gene, variant, tumor_type, tier, assessment
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	_, err = s.db.Exec(ctx, query,
		record.ID,
		record.CreatedAt,
		record.RequestID,
		record.EngineVersion,
		record.Assessment.Gene,
		record.Assessment.Variant,
		record.Assessment.TumorType,
		record.Assessment.Tier,
		assessmentJSON,
	)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"assessment_id": record.ID,
			"gene":          record.Assessment.Gene,
			"variant":       record.Assessment.Variant,
			"error":         err,
		}).Error("failed to create assessment record")
		return fmt.Errorf("creating assessment record: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"assessment_id": record.ID,
		"gene":          record.Assessment.Gene,
		"variant":       record.Assessment.Variant,
		"tier":          record.Assessment.Tier,
	}).Info("assessment record created")

	return nil
}

func scanAssessmentRow(scan func(dest ...any) error) (*domain.AssessmentRecord, error) {
	var record domain.AssessmentRecord
	var assessmentJSON []byte
	var gene, variant, tumorType string
	var tier domain.Tier

	if err := scan(
		&record.ID,
		&record.CreatedAt,
		&record.RequestID,
		&record.EngineVersion,
		&gene,
		&variant,
		&tumorType,
		&tier,
		&assessmentJSON,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(assessmentJSON, &record.Assessment); err != nil {
		return nil, fmt.Errorf("unmarshaling assessment: %w", err)
	}

	return &record, nil
}

// GetByID retrieves one assessment record by its UUID.
func (s *AssessmentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.AssessmentRecord, error) {
	query := `
		SELECT id, created_at, request_id, engine_version, gene, variant, tumor_type, tier, assessment
		FROM assessments
		WHERE id = $1`

	row := s.db.QueryRow(ctx, query, id)
	record, err := scanAssessmentRow(row.Scan)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("assessment not found: %w", domain.ErrNotFound)
		}
		s.log.WithFields(logrus.Fields{"assessment_id": id, "error": err}).Error("failed to get assessment by id")
		return nil, fmt.Errorf("getting assessment by id: %w", err)
	}
	return record, nil
}

// GetByGeneVariant returns the audit history for one gene+variant pair, most
// recent first, per spec's GET /v1/assessments/:gene/:variant endpoint.
func (s *AssessmentStore) GetByGeneVariant(ctx context.Context, gene, variant string, limit, offset int) ([]*domain.AssessmentRecord, error) {
	query := `
		SELECT id, created_at, request_id, engine_version, gene, variant, tumor_type, tier, assessment
		FROM assessments
		WHERE gene = $1 AND variant = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := s.db.Query(ctx, query, gene, variant, limit, offset)
	if err != nil {
		s.log.WithFields(logrus.Fields{"gene": gene, "variant": variant, "error": err}).Error("failed to get assessments by gene/variant")
		return nil, fmt.Errorf("getting assessments by gene/variant: %w", err)
	}
	defer rows.Close()

	var records []*domain.AssessmentRecord
	for rows.Next() {
		record, err := scanAssessmentRow(rows.Scan)
		if err != nil {
			s.log.WithFields(logrus.Fields{"gene": gene, "variant": variant, "error": err}).Error("failed to scan assessment row")
			return nil, fmt.Errorf("scanning assessment row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assessment rows: %w", err)
	}

	return records, nil
}

// Delete removes an assessment record, e.g. for GDPR-style erasure requests.
func (s *AssessmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM assessments WHERE id = $1`

	result, err := s.db.Exec(ctx, query, id)
	if err != nil {
		s.log.WithFields(logrus.Fields{"assessment_id": id, "error": err}).Error("failed to delete assessment")
		return fmt.Errorf("deleting assessment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("assessment not found: %w", domain.ErrNotFound)
	}

	s.log.WithFields(logrus.Fields{"assessment_id": id}).Info("assessment record deleted")
	return nil
}
