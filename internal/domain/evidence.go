package domain

import "strings"

// VariantAnnotation is one hit from the variant-annotation client
// (MyVariant-equivalent), carrying whatever cross-reference fields that
// source populated for this variant.
type VariantAnnotation struct {
	Source          string  `json:"source"`
	CosmicID        string  `json:"cosmic_id,omitempty"`
	NCBIGeneID      string  `json:"ncbi_gene_id,omitempty"`
	DBSNPID         string  `json:"dbsnp_id,omitempty"`
	HGVSGenomic     string  `json:"hgvs_genomic,omitempty"`
	HGVSProtein     string  `json:"hgvs_protein,omitempty"`
	HGVSTranscript  string  `json:"hgvs_transcript,omitempty"`
	SnpEffEffect    string  `json:"snpeff_effect,omitempty"`
	Polyphen2       string  `json:"polyphen2,omitempty"`
	CADDPhred       float64 `json:"cadd_phred,omitempty"`
	GnomadAF        float64 `json:"gnomad_af,omitempty"`
	AlphaMissenseScore float64 `json:"alphamissense_score,omitempty"`
	AlphaMissensePred  string  `json:"alphamissense_prediction,omitempty"`

	// The fields below carry civic.py's CIViCEvidence — the curated
	// molecular-evidence cascade MyVariant.info's "civic" field surfaces
	// (or the CIViC GraphQL fallback backfills when myvariant has none).
	EvidenceType         string   `json:"evidence_type,omitempty"`
	EvidenceLevel        string   `json:"evidence_level,omitempty"`
	EvidenceDirection     string   `json:"evidence_direction,omitempty"`
	ClinicalSignificance string   `json:"clinical_significance,omitempty"`
	Disease              string   `json:"disease,omitempty"`
	Drugs                 []string `json:"drugs,omitempty"`
	Description           string   `json:"description,omitempty"`
	Rating                *int     `json:"rating,omitempty"`
}

// IsSensitivity mirrors civic.py's CIViCEvidence.clinical_significance
// substring convention (shared with VICCAssociation.is_sensitivity()).
func (v VariantAnnotation) IsSensitivity() bool {
	return containsFold(v.ClinicalSignificance, "SENSITIV") || containsFold(v.ClinicalSignificance, "RESPONSE") || containsFold(v.ClinicalSignificance, "RESPONSIVE")
}

// IsResistance mirrors civic.py's CIViCEvidence.clinical_significance
// substring convention.
func (v VariantAnnotation) IsResistance() bool {
	return containsFold(v.ClinicalSignificance, "RESIST")
}

// ClinicalSignificanceRecord mirrors a ClinVar-style record.
type ClinicalSignificanceRecord struct {
	ClinVarID           string `json:"clinvar_id,omitempty"`
	Significance        string `json:"clinical_significance,omitempty"`
	Accession           string `json:"accession,omitempty"`
	ReviewStatus        string `json:"review_status,omitempty"`
}

// SomaticCatalogueRecord mirrors a COSMIC-style somatic occurrence record.
type SomaticCatalogueRecord struct {
	ID          string `json:"id,omitempty"`
	Gene        string `json:"gene,omitempty"`
	Variant     string `json:"variant,omitempty"`
	SampleCount int    `json:"sample_count,omitempty"`
	TumorSite   string `json:"tumor_site,omitempty"`
}

// DrugLabelRecord is a raw drug-label hit; FDAApproval (below) is its
// pure per-tumor-type derivation (spec §3 "derivation is pure").
type DrugLabelRecord struct {
	DrugName                 string `json:"drug_name"`
	BrandName                string `json:"brand_name,omitempty"`
	GenericName               string `json:"generic_name,omitempty"`
	Indication                string `json:"indication"`
	MarketingStatus           string `json:"marketing_status,omitempty"`
	Gene                      string `json:"gene"`
	VariantInIndications      bool   `json:"variant_in_indications"`
	VariantInClinicalStudies  bool   `json:"variant_in_clinical_studies"`
}

type LineOfTherapy string

const (
	LineFirst       LineOfTherapy = "first-line"
	LineLater       LineOfTherapy = "later-line"
	LineUnspecified LineOfTherapy = "unspecified"
)

type ApprovalType string

const (
	ApprovalFull        ApprovalType = "full"
	ApprovalAccelerated ApprovalType = "accelerated"
	ApprovalUnspecified ApprovalType = "unspecified"
)

// FDAApproval embeds the raw label record plus the derived, tumor-scoped
// fields computed purely from (indication, tumor_type) — spec §3.
type FDAApproval struct {
	DrugLabelRecord
	TumorMatch        bool          `json:"tumor_match"`
	LineOfTherapy     LineOfTherapy `json:"line_of_therapy"`
	ApprovalType      ApprovalType  `json:"approval_type"`
	IndicationExcerpt string        `json:"indication_excerpt,omitempty"`
}

// Association is the common shape emitted by the harmonized-KB client.
type Association string

const (
	AssocResponsive Association = "Responsive"
	AssocResistant  Association = "Resistant"
	AssocSensitivity Association = "Sensitivity"
	AssocUnknown     Association = "Unknown"
)

// CuratedBiomarker carries one curated-biomarker-client row. AlterationPattern
// is the small DSL described in spec §4.3.
type CuratedBiomarker struct {
	Gene               string      `json:"gene"`
	AlterationPattern  string      `json:"alteration_pattern"`
	Drug               string      `json:"drug"`
	DrugStatus         string      `json:"drug_status"`
	Association        Association `json:"association"`
	EvidenceLevel       string      `json:"evidence_level"`
	TumorType           string      `json:"tumor_type"`
	TumorTypeFull       string      `json:"tumor_type_full,omitempty"`
	Source              string      `json:"source,omitempty"`
	FDAApproved          bool        `json:"fda_approved"`
}

// IsFDAApproved mirrors cgi.py's CGIBiomarker.is_fda_approved().
func (c CuratedBiomarker) IsFDAApproved() bool {
	return c.FDAApproved
}

// HarmonizedAssertion is one hit from the harmonized-KB (meta-aggregator)
// client, carrying an evidence level and a response type.
type HarmonizedAssertion struct {
	Description     string `json:"description"`
	Gene            string `json:"gene"`
	Variant         string `json:"variant"`
	Disease         string `json:"disease"`
	Drugs           []string `json:"drugs"`
	EvidenceLevel   string `json:"evidence_level"`
	ResponseType    string `json:"response_type"`
	Source          string `json:"source,omitempty"`
	PublicationURL  string `json:"publication_url,omitempty"`
	Oncogenic       string `json:"oncogenic,omitempty"`
}

// IsSensitivity mirrors vicc.py's VICCAssociation.is_sensitivity().
func (h HarmonizedAssertion) IsSensitivity() bool {
	return containsFold(h.ResponseType, "SENSITIV") || containsFold(h.ResponseType, "RESPONSE") || containsFold(h.ResponseType, "RESPONSIVE")
}

// IsResistance mirrors vicc.py's VICCAssociation.is_resistance().
func (h HarmonizedAssertion) IsResistance() bool {
	return containsFold(h.ResponseType, "RESIST")
}

// PredictiveAssertion is one hit from the curated-assertion (molecular
// profile, AMP-tier) client.
type PredictiveAssertion struct {
	AssertionID         string `json:"assertion_id"`
	Name                string `json:"name"`
	AMPLevel            string `json:"amp_level"`
	AssertionType       string `json:"assertion_type"`
	AssertionDirection  string `json:"assertion_direction"`
	Significance        string `json:"significance"`
	Status              string `json:"status"`
	MolecularProfile    string `json:"molecular_profile"`
	Disease             string `json:"disease"`
	Therapies           []string `json:"therapies"`
	FDACompanionTest    bool   `json:"fda_companion_test"`
	NCCNGuideline       string `json:"nccn_guideline,omitempty"`
	Description         string `json:"description,omitempty"`
}

// AMPTier parses the compound amp_level code, e.g. "TIER_I_LEVEL_A".
func (p PredictiveAssertion) AMPTier() string {
	switch {
	case containsFold(p.AMPLevel, "TIER_I") && !containsFold(p.AMPLevel, "TIER_II"):
		return "Tier I"
	case containsFold(p.AMPLevel, "TIER_II"):
		return "Tier II"
	case containsFold(p.AMPLevel, "TIER_III"):
		return "Tier III"
	case containsFold(p.AMPLevel, "TIER_IV"):
		return "Tier IV"
	default:
		return ""
	}
}

// AMPLevelLetter parses the evidence-level letter from the compound code.
func (p PredictiveAssertion) AMPLevelLetter() string {
	for _, l := range []string{"LEVEL_A", "LEVEL_B", "LEVEL_C", "LEVEL_D"} {
		if containsFold(p.AMPLevel, l) {
			return l[len(l)-1:]
		}
	}
	return ""
}

func (p PredictiveAssertion) IsSensitivity() bool {
	return containsFold(p.AssertionDirection, "SUPPORTS") && containsFold(p.Significance, "SENSITIV")
}

func (p PredictiveAssertion) IsResistance() bool {
	return containsFold(p.Significance, "RESIST")
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToUpper(haystack), strings.ToUpper(needle))
}

// Evidence is the immutable bundle returned by the Aggregator (spec §3/§4.4).
type Evidence struct {
	VariantID string `json:"variant_id"`
	Gene      string `json:"gene"`
	Variant   string `json:"variant"`

	CosmicID             string `json:"cosmic_id,omitempty"`
	NCBIGeneID           string `json:"ncbi_gene_id,omitempty"`
	DBSNPID              string `json:"dbsnp_id,omitempty"`
	ClinVarID            string `json:"clinvar_id,omitempty"`
	ClinVarSignificance  string `json:"clinvar_significance,omitempty"`
	ClinVarAccession     string `json:"clinvar_accession,omitempty"`
	HGVSGenomic          string `json:"hgvs_genomic,omitempty"`
	HGVSProtein          string `json:"hgvs_protein,omitempty"`
	HGVSTranscript       string `json:"hgvs_transcript,omitempty"`

	SnpEffEffect         string  `json:"snpeff_effect,omitempty"`
	Polyphen2            string  `json:"polyphen2,omitempty"`
	CADDPhred            float64 `json:"cadd_phred,omitempty"`
	GnomadAF             float64 `json:"gnomad_af,omitempty"`
	AlphaMissenseScore   float64 `json:"alphamissense_score,omitempty"`
	AlphaMissensePred    string  `json:"alphamissense_prediction,omitempty"`

	VariantAnnotations         []VariantAnnotation          `json:"variant_annotations"`
	ClinicalSignificanceRecords []ClinicalSignificanceRecord `json:"clinical_significance_records"`
	SomaticCatalogueRecords     []SomaticCatalogueRecord     `json:"somatic_catalogue_records"`
	DrugLabelRecords            []FDAApproval                `json:"drug_label_records"`
	CuratedBiomarkerRecords     []CuratedBiomarker            `json:"curated_biomarker_records"`
	HarmonizedAssertions        []HarmonizedAssertion         `json:"harmonized_assertions"`
	PredictiveAssertions         []PredictiveAssertion        `json:"predictive_assertions"`
}

// NewEmptyEvidence builds an Evidence bundle with every source list
// initialized (never nil), matching spec §3's "every source list may be
// empty" invariant without ever exposing a nil slice to callers.
func NewEmptyEvidence(gene, variant string) *Evidence {
	return &Evidence{
		Gene:                        gene,
		Variant:                     variant,
		VariantAnnotations:          []VariantAnnotation{},
		ClinicalSignificanceRecords: []ClinicalSignificanceRecord{},
		SomaticCatalogueRecords:     []SomaticCatalogueRecord{},
		DrugLabelRecords:            []FDAApproval{},
		CuratedBiomarkerRecords:     []CuratedBiomarker{},
		HarmonizedAssertions:        []HarmonizedAssertion{},
		PredictiveAssertions:        []PredictiveAssertion{},
	}
}
