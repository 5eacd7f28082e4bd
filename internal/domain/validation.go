package domain

import "time"

// GoldStandardEntry is one row of the validation harness's input set.
type GoldStandardEntry struct {
	Gene         string   `json:"gene"`
	Variant      string   `json:"variant"`
	TumorType    string   `json:"tumor_type"`
	ExpectedTier Tier     `json:"expected_tier"`
	Notes        string   `json:"notes,omitempty"`
	References   []string `json:"references,omitempty"`
}

// ValidationResult pairs one gold-standard entry with the engine's verdict.
type ValidationResult struct {
	Gene            string      `json:"gene"`
	Variant         string      `json:"variant"`
	TumorType       string      `json:"tumor_type"`
	ExpectedTier    Tier        `json:"expected_tier"`
	PredictedTier   Tier        `json:"predicted_tier"`
	IsCorrect       bool        `json:"is_correct"`
	ConfidenceScore float64     `json:"confidence_score"`
	Assessment      *Assessment `json:"assessment,omitempty"`
}

// TierDistance returns the ordinal distance between expected and predicted
// tier, or the sentinel 999 when either side is Unknown (spec §3, §8 inv. 8).
func (r ValidationResult) TierDistance() int {
	ei, eok := tierOrder[r.ExpectedTier]
	pi, pok := tierOrder[r.PredictedTier]
	if !eok || !pok {
		return 999
	}
	d := ei - pi
	if d < 0 {
		d = -d
	}
	return d
}

// TierMetrics is the per-tier confusion-matrix slice.
type TierMetrics struct {
	Tier            Tier    `json:"tier"`
	TruePositives   int     `json:"true_positives"`
	FalsePositives  int     `json:"false_positives"`
	FalseNegatives  int     `json:"false_negatives"`
	Precision       float64 `json:"precision"`
	Recall          float64 `json:"recall"`
	F1Score         float64 `json:"f1_score"`
}

// Calculate computes precision/recall/F1 with zero-guards.
func (m *TierMetrics) Calculate() {
	if m.TruePositives+m.FalsePositives > 0 {
		m.Precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}
	if m.TruePositives+m.FalseNegatives > 0 {
		m.Recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}
	if m.Precision+m.Recall > 0 {
		m.F1Score = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
}

// FailureAnalysisEntry records one mismatch for post-hoc review.
type FailureAnalysisEntry struct {
	Gene          string `json:"gene"`
	Variant       string `json:"variant"`
	TumorType     string `json:"tumor_type"`
	ExpectedTier  Tier   `json:"expected_tier"`
	PredictedTier Tier   `json:"predicted_tier"`
	Summary       string `json:"summary"`
}

// ValidationMetrics is the Validator's final report (spec §4.9).
type ValidationMetrics struct {
	TotalCases        int                    `json:"total_cases"`
	CorrectPredictions int                   `json:"correct_predictions"`
	Accuracy          float64                `json:"accuracy"`
	AverageConfidence float64                `json:"average_confidence"`
	TierMetrics       map[Tier]*TierMetrics  `json:"tier_metrics"`
	FailureAnalysis   []FailureAnalysisEntry `json:"failure_analysis"`
}

// AddResult folds one ValidationResult into the running metrics, mirroring
// evidence.py's ValidationMetrics.add_result.
func (m *ValidationMetrics) AddResult(r ValidationResult) {
	if m.TierMetrics == nil {
		m.TierMetrics = make(map[Tier]*TierMetrics)
	}
	m.TotalCases++
	if r.IsCorrect {
		m.CorrectPredictions++
	}
	ensure := func(t Tier) *TierMetrics {
		if _, ok := m.TierMetrics[t]; !ok {
			m.TierMetrics[t] = &TierMetrics{Tier: t}
		}
		return m.TierMetrics[t]
	}
	if r.IsCorrect {
		ensure(r.ExpectedTier).TruePositives++
	} else {
		ensure(r.ExpectedTier).FalseNegatives++
		ensure(r.PredictedTier).FalsePositives++
		summary := ""
		if r.Assessment != nil {
			summary = truncate(r.Assessment.Summary, 200)
		}
		m.FailureAnalysis = append(m.FailureAnalysis, FailureAnalysisEntry{
			Gene:          r.Gene,
			Variant:       r.Variant,
			TumorType:     r.TumorType,
			ExpectedTier:  r.ExpectedTier,
			PredictedTier: r.PredictedTier,
			Summary:       summary,
		})
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// CalculateValidationMetrics folds every result and finalizes per-tier stats.
func CalculateValidationMetrics(results []ValidationResult) *ValidationMetrics {
	m := &ValidationMetrics{TierMetrics: make(map[Tier]*TierMetrics)}
	var confidenceSum float64
	for _, r := range results {
		m.AddResult(r)
		confidenceSum += r.ConfidenceScore
	}
	if m.TotalCases > 0 {
		m.Accuracy = float64(m.CorrectPredictions) / float64(m.TotalCases)
		m.AverageConfidence = confidenceSum / float64(m.TotalCases)
	}
	for _, tm := range m.TierMetrics {
		tm.Calculate()
	}
	return m
}

// ValidationRun is the [ADDED] persisted summary of one Validator invocation.
type ValidationRun struct {
	ID             string            `json:"id"`
	StartedAt      time.Time         `json:"started_at"`
	CompletedAt    time.Time         `json:"completed_at"`
	DatasetName    string            `json:"dataset_name"`
	MaxConcurrent  int               `json:"max_concurrent"`
	Metrics        ValidationMetrics `json:"metrics"`
}
