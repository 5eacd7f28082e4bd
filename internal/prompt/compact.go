package prompt

import (
	"fmt"
	"strings"

	"github.com/variant-actionability/assessor/internal/domain"
	"github.com/variant-actionability/assessor/internal/preprocessor"
)

// SummaryCompact renders the compact per-source detail block: FDA
// approvals, curated-biomarker (CGI) resistance/sensitivity markers, and
// curated-assertion (CIViC) Tier I/II/prognostic assertions. Grounded on
// evidence.py's summary_compact — the one place the full per-source detail
// still reaches the prompt, everything else having been replaced by the
// drug-level aggregation.
func SummaryCompact(ev *domain.Evidence, tumorType string) string {
	lines := []string{fmt.Sprintf("Evidence for %s %s:\n", ev.Gene, ev.Variant)}

	if len(ev.DrugLabelRecords) > 0 {
		lines = append(lines, fmt.Sprintf("FDA Approved Drugs (%d):", len(ev.DrugLabelRecords)))
		for i, approval := range ev.DrugLabelRecords {
			if i >= 5 {
				break
			}
			drug := drugNameOf(approval.DrugLabelRecord)
			variantExplicit := approval.VariantInClinicalStudies

			if tumorType != "" {
				parsed := preprocessor.ParseIndicationForTumor(approval.DrugLabelRecord, tumorType)
				if parsed.TumorMatch || variantExplicit {
					lineInfo := "UNSPECIFIED"
					approvalInfo := "UNSPECIFIED"
					if parsed.TumorMatch {
						lineInfo = strings.ToUpper(string(parsed.LineOfTherapy))
						approvalInfo = strings.ToUpper(string(parsed.ApprovalType))
					}
					variantNote := ""
					if variantExplicit {
						variantNote = " *** VARIANT EXPLICITLY IN FDA LABEL ***"
					}
					lines = append(lines, fmt.Sprintf("  - %s [FOR %s]%s:", drug, strings.ToUpper(tumorType), variantNote))
					lines = append(lines, fmt.Sprintf("      Line of therapy: %s", lineInfo))
					lines = append(lines, fmt.Sprintf("      Approval type: %s", approvalInfo))

					indication := approval.Indication
					if idx := strings.Index(indication, "[Clinical studies mention"); idx >= 0 {
						excerpt := sliceSafe(indication, idx, idx+400)
						lines = append(lines, fmt.Sprintf("      %s...", excerpt))
					} else {
						lines = append(lines, fmt.Sprintf("      Excerpt: %s...", truncate(parsed.IndicationExcerpt, 200)))
					}
				} else {
					lines = append(lines, fmt.Sprintf("  - %s [OTHER INDICATIONS]: %s...", drug, truncate(approval.Indication, 300)))
				}
			} else {
				lines = append(lines, fmt.Sprintf("  - %s: %s...", drug, truncate(approval.Indication, 800)))
			}
		}
		lines = append(lines, "")
	}

	if len(ev.CuratedBiomarkerRecords) > 0 {
		var approved, resistanceApproved, sensitivityApproved []domain.CuratedBiomarker
		for _, b := range ev.CuratedBiomarkerRecords {
			if b.FDAApproved {
				approved = append(approved, b)
			}
		}
		for _, b := range approved {
			if b.Association == domain.AssocResistant {
				resistanceApproved = append(resistanceApproved, b)
			} else {
				sensitivityApproved = append(sensitivityApproved, b)
			}
		}

		if len(resistanceApproved) > 0 {
			lines = append(lines, fmt.Sprintf("CGI FDA-APPROVED RESISTANCE MARKERS (%d):", len(resistanceApproved)))
			lines = append(lines, "  *** THESE VARIANTS EXCLUDE USE OF FDA-APPROVED THERAPIES ***")
			for i, b := range resistanceApproved {
				if i >= 5 {
					break
				}
				tumor := b.TumorType
				if tumor == "" {
					tumor = "solid tumors"
				}
				lines = append(lines, fmt.Sprintf("  - %s [%s] in %s - Evidence: %s", b.Drug, strings.ToUpper(string(b.Association)), tumor, b.EvidenceLevel))
			}
			lines = append(lines, "  -> This variant causes RESISTANCE to the above drug(s), making it Tier II actionable as a NEGATIVE biomarker.", "")
		}

		if len(sensitivityApproved) > 0 {
			lines = append(lines, fmt.Sprintf("CGI FDA-Approved Sensitivity Biomarkers (%d):", len(sensitivityApproved)))
			for i, b := range sensitivityApproved {
				if i >= 5 {
					break
				}
				tumor := b.TumorType
				if tumor == "" {
					tumor = "solid tumors"
				}
				lines = append(lines, fmt.Sprintf("  - %s [%s] in %s - Evidence: %s", b.Drug, b.Association, tumor, b.EvidenceLevel))
			}
			lines = append(lines, "")
		}
	}

	if len(ev.PredictiveAssertions) > 0 {
		var tierI, tierII, prognostic []domain.PredictiveAssertion
		for _, a := range ev.PredictiveAssertions {
			switch {
			case a.AMPTier() == "Tier I" && a.AssertionType == "PREDICTIVE":
				tierI = append(tierI, a)
			case a.AMPTier() == "Tier II" && a.AssertionType == "PREDICTIVE":
				tierII = append(tierII, a)
			case a.AssertionType == "PROGNOSTIC":
				prognostic = append(prognostic, a)
			}
		}

		if len(tierI) > 0 {
			lines = append(lines, fmt.Sprintf("CIViC PREDICTIVE TIER I ASSERTIONS (%d):", len(tierI)))
			lines = append(lines, "  *** EXPERT-CURATED - THERAPY ACTIONABLE ***")
			for i, a := range tierI {
				if i >= 5 {
					break
				}
				therapies := "N/A"
				if len(a.Therapies) > 0 {
					therapies = strings.Join(a.Therapies, ", ")
				}
				fdaNote := ""
				if a.FDACompanionTest {
					fdaNote = " [FDA Companion Test]"
				}
				nccnNote := ""
				if a.NCCNGuideline != "" {
					nccnNote = fmt.Sprintf(" [NCCN: %s]", a.NCCNGuideline)
				}
				lines = append(lines, fmt.Sprintf("  - %s: %s [%s]%s%s", a.MolecularProfile, therapies, a.Significance, fdaNote, nccnNote))
				lines = append(lines, fmt.Sprintf("      AMP Level: %s, Disease: %s", a.AMPLevel, a.Disease))
			}
			lines = append(lines, "")
		}

		if len(tierII) > 0 {
			lines = append(lines, fmt.Sprintf("CIViC Predictive Tier II Assertions (%d):", len(tierII)))
			for i, a := range tierII {
				if i >= 3 {
					break
				}
				therapies := "N/A"
				if len(a.Therapies) > 0 {
					therapies = strings.Join(a.Therapies, ", ")
				}
				lines = append(lines, fmt.Sprintf("  - %s: %s [%s]", a.MolecularProfile, therapies, a.Significance))
			}
			lines = append(lines, "")
		}

		if len(prognostic) > 0 {
			lines = append(lines, fmt.Sprintf("CIViC PROGNOSTIC Assertions (%d):", len(prognostic)))
			lines = append(lines, "  *** PROGNOSTIC ONLY - indicates outcome, NOT therapy actionability ***")
			for i, a := range prognostic {
				if i >= 3 {
					break
				}
				lines = append(lines, fmt.Sprintf("  - %s: %s in %s", a.MolecularProfile, a.Significance, a.Disease))
				if t := a.AMPTier(); t != "" {
					lines = append(lines, fmt.Sprintf("      (Prognostic %s - does NOT imply Tier I/II for therapy)", t))
				}
			}
			lines = append(lines, "")
		}
	}

	if ev.ClinVarSignificance != "" {
		lines = append(lines, fmt.Sprintf("ClinVar: %s", ev.ClinVarSignificance), "")
	}

	if len(lines) <= 1 {
		return ""
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func sliceSafe(s string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start > end {
		return ""
	}
	return s[start:end]
}
