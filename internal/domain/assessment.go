package domain

import "time"

// Tier is the AMP/ASCO/CAP tier verdict.
type Tier string

const (
	TierI       Tier = "Tier I"
	TierII      Tier = "Tier II"
	TierIII     Tier = "Tier III"
	TierIV      Tier = "Tier IV"
	TierUnknown Tier = "Unknown"
)

// tierOrder gives the ordinal position used for tier-distance computation
// (spec §3, §8 invariant 8). Unknown has no ordinal position.
var tierOrder = map[Tier]int{
	TierI:   0,
	TierII:  1,
	TierIII: 2,
	TierIV:  3,
}

// EvidenceStrength is the LLM's qualitative confidence label.
type EvidenceStrength string

const (
	EvidenceStrong   EvidenceStrength = "Strong"
	EvidenceModerate EvidenceStrength = "Moderate"
	EvidenceWeak     EvidenceStrength = "Weak"
)

// RecommendedTherapy is one entry of Assessment.RecommendedTherapies.
type RecommendedTherapy struct {
	DrugName         string `json:"drug_name"`
	EvidenceLevel    string `json:"evidence_level"`
	ApprovalStatus   string `json:"approval_status"`
	ClinicalContext  string `json:"clinical_context"`
}

// Assessment is the LLM verdict merged with every identifier carried
// through from Evidence (spec §3, §6 output shape).
type Assessment struct {
	Gene      string `json:"gene"`
	Variant   string `json:"variant"`
	TumorType string `json:"tumor_type,omitempty"`

	Tier                 Tier                 `json:"tier"`
	ConfidenceScore      float64              `json:"confidence_score"`
	Summary              string               `json:"summary"`
	Rationale            string               `json:"rationale"`
	EvidenceStrength     EvidenceStrength     `json:"evidence_strength"`
	RecommendedTherapies []RecommendedTherapy `json:"recommended_therapies"`
	ClinicalTrialsAvailable bool              `json:"clinical_trials_available"`
	References           []string             `json:"references"`

	CosmicID            string  `json:"cosmic_id,omitempty"`
	NCBIGeneID          string  `json:"ncbi_gene_id,omitempty"`
	DBSNPID             string  `json:"dbsnp_id,omitempty"`
	ClinVarID           string  `json:"clinvar_id,omitempty"`
	ClinVarSignificance string  `json:"clinvar_clinical_significance,omitempty"`
	ClinVarAccession    string  `json:"clinvar_accession,omitempty"`
	HGVSGenomic         string  `json:"hgvs_genomic,omitempty"`
	HGVSProtein         string  `json:"hgvs_protein,omitempty"`
	HGVSTranscript      string  `json:"hgvs_transcript,omitempty"`
	SnpEffEffect        string  `json:"snpeff_effect,omitempty"`
	Polyphen2Prediction string  `json:"polyphen2_prediction,omitempty"`
	CADDScore           float64 `json:"cadd_score,omitempty"`
	GnomadExomeAF       float64 `json:"gnomad_exome_af,omitempty"`
	AlphaMissenseScore  float64 `json:"alphamissense_score,omitempty"`
	AlphaMissensePred   string  `json:"alphamissense_prediction,omitempty"`
	TranscriptID        string  `json:"transcript_id,omitempty"`
	TranscriptConsequence string `json:"transcript_consequence,omitempty"`
}

// FromEvidence copies every identifier/functional annotation from ev onto
// the assessment, per spec §4.7 step 4 ("copies every identifier ...").
func (a *Assessment) FromEvidence(ev *Evidence) {
	a.Gene = ev.Gene
	a.Variant = ev.Variant
	a.CosmicID = ev.CosmicID
	a.NCBIGeneID = ev.NCBIGeneID
	a.DBSNPID = ev.DBSNPID
	a.ClinVarID = ev.ClinVarID
	a.ClinVarSignificance = ev.ClinVarSignificance
	a.ClinVarAccession = ev.ClinVarAccession
	a.HGVSGenomic = ev.HGVSGenomic
	a.HGVSProtein = ev.HGVSProtein
	a.HGVSTranscript = ev.HGVSTranscript
	a.SnpEffEffect = ev.SnpEffEffect
	a.Polyphen2Prediction = ev.Polyphen2
	a.CADDScore = ev.CADDPhred
	a.GnomadExomeAF = ev.GnomadAF
	a.AlphaMissenseScore = ev.AlphaMissenseScore
	a.AlphaMissensePred = ev.AlphaMissensePred
}

// AssessmentRecord is the [ADDED] persisted audit-log row (SPEC_FULL §3).
type AssessmentRecord struct {
	ID            string     `json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	RequestID     string     `json:"request_id"`
	EngineVersion string     `json:"engine_version"`
	Assessment    Assessment `json:"assessment"`
}
