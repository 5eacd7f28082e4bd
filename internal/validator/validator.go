// Package validator benchmarks the Engine against a gold-standard dataset,
// computing a per-tier confusion matrix plus overall accuracy. Grounded on
// original_source/.../validation/validator.py's Validator class; the
// asyncio.Semaphore concurrency cap is translated to a buffered-channel
// semaphore combined with golang.org/x/sync/errgroup, per the teacher's
// bounded-fan-out idiom.
package validator

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/variant-actionability/assessor/internal/domain"
	"github.com/variant-actionability/assessor/internal/engine"
)

const defaultMaxConcurrent = 3

// Validator runs an Engine against a GoldStandardEntry dataset.
type Validator struct {
	engine *engine.Engine
	log    *logrus.Logger
}

func New(eng *engine.Engine, log *logrus.Logger) *Validator {
	return &Validator{engine: eng, log: log}
}

// ValidateSingle assesses one gold-standard entry and compares the verdict
// to its expected tier.
func (v *Validator) ValidateSingle(ctx context.Context, entry domain.GoldStandardEntry) (domain.ValidationResult, error) {
	input := domain.VariantInput{Gene: entry.Gene, Variant: entry.Variant, TumorType: entry.TumorType}

	assessment, err := v.engine.AssessVariant(ctx, input)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	return domain.ValidationResult{
		Gene:            entry.Gene,
		Variant:         entry.Variant,
		TumorType:       entry.TumorType,
		ExpectedTier:    entry.ExpectedTier,
		PredictedTier:   assessment.Tier,
		IsCorrect:       assessment.Tier == entry.ExpectedTier,
		ConfidenceScore: assessment.ConfidenceScore,
		Assessment:      assessment,
	}, nil
}

// ValidateDataset implements spec §4.9: runs every entry through a
// semaphore of size maxConcurrent (default 3), discards entries whose
// engine call errored, and folds the rest into ValidationMetrics.
func (v *Validator) ValidateDataset(ctx context.Context, goldStandard []domain.GoldStandardEntry, maxConcurrent int) *domain.ValidationMetrics {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	results := make([]*domain.ValidationResult, len(goldStandard))
	sem := make(chan struct{}, maxConcurrent)
	g, gctx := errgroup.WithContext(ctx)

	for i, entry := range goldStandard {
		i, entry := i, entry
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := v.ValidateSingle(gctx, entry)
			if err != nil {
				v.log.WithError(err).WithFields(logrus.Fields{
					"gene": entry.Gene, "variant": entry.Variant,
				}).Warn("validation entry failed, excluding from metrics")
				return nil
			}
			results[i] = &result
			return nil
		})
	}
	// errgroup's WithContext cancellation is unused here since a failing
	// entry is swallowed rather than propagated (spec §4.9's "failures
	// become absent entries").
	_ = g.Wait()

	valid := make([]domain.ValidationResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			valid = append(valid, *r)
		}
	}

	v.log.WithFields(logrus.Fields{
		"total": len(goldStandard), "completed": len(valid),
	}).Info("validation dataset complete")

	return domain.CalculateValidationMetrics(valid)
}
