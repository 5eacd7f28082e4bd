package llm

import "github.com/variant-actionability/assessor/internal/domain"

// assessmentPayload is the strict JSON schema the system prompt requires
// (spec §4.7 step 1 / the RESPONSE FORMAT block in prompts.py). tier,
// confidence_score, summary and rationale are the four required fields, and
// Assess rejects a reply missing any of them; everything else defaults when
// absent, mirroring service.py's data.get(..., default) pattern.
type assessmentPayload struct {
	Tier                  string                        `json:"tier"`
	ConfidenceScore       *float64                      `json:"confidence_score"`
	Summary               string                        `json:"summary"`
	Rationale             string                        `json:"rationale"`
	EvidenceStrength      string                        `json:"evidence_strength"`
	RecommendedTherapies  []domain.RecommendedTherapy   `json:"recommended_therapies"`
	ClinicalTrialsAvailable bool                        `json:"clinical_trials_available"`
	References            []string                      `json:"references"`
}

func (p assessmentPayload) toAssessment(gene, variant, tumorType string) *domain.Assessment {
	tier := domain.Tier(p.Tier)
	if tier == "" {
		tier = domain.TierUnknown
	}

	confidence := 0.5
	if p.ConfidenceScore != nil {
		confidence = *p.ConfidenceScore
	}

	summary := p.Summary
	if summary == "" {
		summary = "No summary provided."
	}
	rationale := p.Rationale
	if rationale == "" {
		rationale = "No rationale provided."
	}

	return &domain.Assessment{
		Gene:                    gene,
		Variant:                 variant,
		TumorType:               tumorType,
		Tier:                    tier,
		ConfidenceScore:         confidence,
		Summary:                 summary,
		Rationale:               rationale,
		EvidenceStrength:        domain.EvidenceStrength(p.EvidenceStrength),
		RecommendedTherapies:    p.RecommendedTherapies,
		ClinicalTrialsAvailable: p.ClinicalTrialsAvailable,
		References:              p.References,
	}
}
