package preprocessor

import (
	"strings"

	"github.com/variant-actionability/assessor/internal/domain"
)

// wildtypeRequirementPatterns are checked against an FDA label's indication
// text to detect labels that require wild-type status (i.e. exclude this
// variant), per spec §4.5.3.
func wildtypeRequirementPatterns(geneLower string) []string {
	return []string{
		geneLower + " wild-type",
		geneLower + "-wild-type",
		"wild type " + geneLower,
		"without " + geneLower + " mutation",
		geneLower + "-negative",
		"ras wild-type",
		"ras wildtype",
	}
}

// CheckFDARequiresWildtype reports whether any FDA label applicable to
// tumorType requires wild-type status for this gene, and names the drugs.
func CheckFDARequiresWildtype(ev *domain.Evidence, tumorType string) (bool, []string) {
	var drugs []string
	geneLower := strings.ToLower(ev.Gene)
	patterns := wildtypeRequirementPatterns(geneLower)

	for _, approval := range ev.DrugLabelRecords {
		parsed := ParseIndicationForTumor(approval.DrugLabelRecord, tumorType)
		if !parsed.TumorMatch {
			continue
		}
		indicationLower := strings.ToLower(approval.Indication)
		for _, pattern := range patterns {
			if strings.Contains(indicationLower, pattern) {
				drug := approval.BrandName
				if drug == "" {
					drug = approval.GenericName
				}
				if drug != "" {
					drugs = append(drugs, drug)
				}
				break
			}
		}
	}
	return len(drugs) > 0, drugs
}

// HasFDAForVariantInTumor implements spec §4.5.2/§4.5.4 rule 2: whether an
// approved therapy applies FOR this specific variant in this tumor type,
// checked first via explicit variant mention then via the gene+class rule
// table, then via curated-assertion/curated-biomarker corroboration.
func HasFDAForVariantInTumor(ev *domain.Evidence, tumorType string) bool {
	if tumorType == "" {
		return false
	}
	if IsInvestigationalOnly(ev.Gene, tumorType) {
		return false
	}

	variantLower := strings.ToLower(ev.Variant)
	geneLower := strings.ToLower(ev.Gene)

	for _, approval := range ev.DrugLabelRecords {
		parsed := ParseIndicationForTumor(approval.DrugLabelRecord, tumorType)
		if !parsed.TumorMatch {
			continue
		}
		indicationLower := strings.ToLower(approval.Indication)

		if variantLower != "" && strings.Contains(indicationLower, variantLower) {
			return true
		}
		if strings.Contains(indicationLower, geneLower) {
			if VariantMatchesApprovalClass(ev.Gene, ev.Variant, indicationLower) {
				return true
			}
		}
	}

	for _, a := range ev.VariantAnnotations {
		if a.EvidenceLevel != "A" || a.EvidenceType != "PREDICTIVE" {
			continue
		}
		if !TumorMatches(tumorType, a.Disease) || !a.IsSensitivity() {
			continue
		}
		desc := strings.ToLower(a.Description)
		if strings.Contains(desc, variantLower) || strings.Contains(desc, geneLower) {
			return true
		}
	}

	for _, a := range ev.PredictiveAssertions {
		if a.AMPTier() != "Tier I" || a.AssertionType != "PREDICTIVE" {
			continue
		}
		if !TumorMatches(tumorType, a.Disease) {
			continue
		}
		if a.IsSensitivity() {
			return true
		}
		if a.IsResistance() && len(a.Therapies) > 0 {
			return true
		}
	}

	for _, b := range ev.CuratedBiomarkerRecords {
		if b.FDAApproved && b.TumorType != "" && TumorMatches(tumorType, b.TumorType) {
			if b.Association != domain.AssocResistant {
				alt := strings.ToUpper(b.AlterationPattern)
				if strings.Contains(alt, strings.ToUpper(ev.Variant)) || strings.Contains(alt, "MUT") {
					return true
				}
			}
		}
	}

	return false
}

// IsResistanceMarkerWithoutTargetedTherapy implements spec §4.5.3.
func IsResistanceMarkerWithoutTargetedTherapy(ev *domain.Evidence, tumorType string) (bool, []string) {
	stats := ComputeEvidenceStats(ev)

	if stats.ResistanceCount == 0 {
		return false, nil
	}
	if stats.DominantSignal != SignalResistanceOnly && stats.DominantSignal != SignalResistanceDominant {
		if stats.ResistanceCount < 3 {
			return false, nil
		}
	}
	if HasFDAForVariantInTumor(ev, tumorType) {
		return false, nil
	}

	var excluded []string
	if tumorType != "" {
		if requiresWT, wtDrugs := CheckFDARequiresWildtype(ev, tumorType); requiresWT {
			excluded = append(excluded, wtDrugs...)
		}
	}

	for _, b := range ev.CuratedBiomarkerRecords {
		if b.FDAApproved && b.Association == domain.AssocResistant {
			if tumorType != "" && b.TumorType != "" {
				if TumorMatches(tumorType, b.TumorType) && b.Drug != "" {
					excluded = append(excluded, b.Drug)
				}
			} else if tumorType == "" && b.Drug != "" {
				excluded = append(excluded, b.Drug)
			}
		}
	}

	if tumorType != "" {
		for _, a := range ev.HarmonizedAssertions {
			if a.IsResistance() && TumorMatches(tumorType, a.Disease) {
				excluded = append(excluded, a.Drugs...)
			}
		}
		for _, a := range ev.VariantAnnotations {
			if a.IsResistance() && TumorMatches(tumorType, a.Disease) {
				excluded = append(excluded, a.Drugs...)
			}
		}
	}

	excluded = dedupeNonEmpty(excluded, 5)
	return len(excluded) > 0, excluded
}

func dedupeNonEmpty(items []string, limit int) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range items {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// IsPrognosticOrDiagnosticOnly implements the predicate spec §4.5.4 rule 4
// depends on: true when no source carries any predictive (therapy-linked)
// signal at all.
func IsPrognosticOrDiagnosticOnly(ev *domain.Evidence) bool {
	for _, a := range ev.PredictiveAssertions {
		if a.AssertionType == "PREDICTIVE" && len(a.Therapies) > 0 {
			return false
		}
	}
	for _, a := range ev.VariantAnnotations {
		if a.EvidenceType == "PREDICTIVE" && len(a.Drugs) > 0 {
			return false
		}
	}
	for _, a := range ev.HarmonizedAssertions {
		if len(a.Drugs) > 0 && (a.IsSensitivity() || a.IsResistance()) {
			return false
		}
	}
	if len(ev.CuratedBiomarkerRecords) > 0 {
		return false
	}
	if len(ev.DrugLabelRecords) > 0 {
		return false
	}
	return true
}

// GetTierHint implements spec §4.5.4's seven-step priority ladder.
func GetTierHint(ev *domain.Evidence, tumorType string) string {
	if IsInvestigationalOnly(ev.Gene, tumorType) {
		return "TIER III INDICATOR: Known investigational-only (no approved therapy exists)"
	}

	if HasFDAForVariantInTumor(ev, tumorType) {
		return "TIER I INDICATOR: FDA-approved therapy FOR this variant in this tumor type"
	}

	if isResistanceOnly, drugs := IsResistanceMarkerWithoutTargetedTherapy(ev, tumorType); isResistanceOnly {
		drugsStr := "standard therapies"
		if len(drugs) > 0 {
			drugsStr = strings.Join(drugs, ", ")
		}
		return "TIER II INDICATOR: Resistance marker that EXCLUDES " + drugsStr + " (no FDA-approved therapy FOR this variant)"
	}

	if IsPrognosticOrDiagnosticOnly(ev) {
		return "TIER III INDICATOR: Prognostic/diagnostic only - no therapeutic impact"
	}

	hasFDAElsewhere := len(ev.DrugLabelRecords) > 0
	if !hasFDAElsewhere {
		for _, b := range ev.CuratedBiomarkerRecords {
			if b.FDAApproved {
				hasFDAElsewhere = true
				break
			}
		}
	}
	if !hasFDAElsewhere {
		for _, a := range ev.PredictiveAssertions {
			if a.AMPLevelLetter() == "A" && a.AssertionType == "PREDICTIVE" {
				hasFDAElsewhere = true
				break
			}
		}
	}
	if hasFDAElsewhere {
		return "TIER II INDICATOR: FDA-approved therapy exists in different tumor type (off-label potential)"
	}

	stats := ComputeEvidenceStats(ev)
	hasStrongEvidence := false
	for _, a := range ev.PredictiveAssertions {
		if a.AssertionType != "PREDICTIVE" {
			continue
		}
		if l := a.AMPLevelLetter(); l == "A" || l == "B" {
			hasStrongEvidence = true
			break
		}
	}

	if hasStrongEvidence || stats.SensitivityCount > 0 {
		return "TIER II/III: Strong evidence but no FDA approval - evaluate trial data and guidelines"
	}

	return "TIER III: Investigational/emerging evidence only"
}
