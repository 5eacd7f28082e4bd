// Package prompt assembles the evidence-summary text block and the final
// chat messages handed to the LLMAdjudicator. Grounded on
// original_source/.../models/evidence/evidence.py's
// format_evidence_summary_header/format_drug_aggregation_summary/
// summary_compact and .../llm/prompts.py.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/variant-actionability/assessor/internal/domain"
	"github.com/variant-actionability/assessor/internal/preprocessor"
)

const ruleWidth = 60

func rule() string {
	return strings.Repeat("=", ruleWidth)
}

// FormatEvidenceSummaryHeader builds the tier-guidance banner plus the
// sensitivity/resistance breakdown and conflict list (spec §4.6 part 1).
func FormatEvidenceSummaryHeader(ev *domain.Evidence, tumorType string) string {
	stats := preprocessor.ComputeEvidenceStats(ev)
	var lines []string

	lines = append(lines, rule(), "EVIDENCE SUMMARY (Pre-processed)", rule(), "")
	lines = append(lines, "*** TIER CLASSIFICATION GUIDANCE ***")
	lines = append(lines, preprocessor.GetTierHint(ev, tumorType))
	lines = append(lines, rule(), "")

	total := stats.SensitivityCount + stats.ResistanceCount
	if total > 0 {
		sensPct := float64(stats.SensitivityCount) / float64(total) * 100
		resPct := float64(stats.ResistanceCount) / float64(total) * 100

		lines = append(lines, fmt.Sprintf("Sensitivity entries: %d (%.0f%%) - Levels: %s",
			stats.SensitivityCount, sensPct, formatLevelCounts(stats.SensitivityByLevel)))
		lines = append(lines, fmt.Sprintf("Resistance entries: %d (%.0f%%) - Levels: %s",
			stats.ResistanceCount, resPct, formatLevelCounts(stats.ResistanceByLevel)))

		if interpretation, ok := signalInterpretation(stats.DominantSignal, sensPct, resPct); ok {
			lines = append(lines, interpretation)
		}
	} else {
		lines = append(lines, "No sensitivity/resistance evidence found in databases.")
	}

	if tumorType != "" && len(ev.DrugLabelRecords) > 0 {
		var laterLine, firstLine []string
		for _, approval := range ev.DrugLabelRecords {
			parsed := preprocessor.ParseIndicationForTumor(approval.DrugLabelRecord, tumorType)
			if !parsed.TumorMatch {
				continue
			}
			drug := drugNameOf(approval.DrugLabelRecord)
			switch parsed.LineOfTherapy {
			case domain.LineLater:
				note := ""
				if parsed.ApprovalType == domain.ApprovalAccelerated {
					note = " (ACCELERATED)"
				}
				laterLine = append(laterLine, drug+note)
			case domain.LineFirst:
				firstLine = append(firstLine, drug)
			}
		}
		if len(laterLine) > 0 && len(firstLine) == 0 {
			lines = append(lines, "", "FDA APPROVAL CONTEXT:",
				"  FDA-APPROVED FOR THIS BIOMARKER (later-line): "+strings.Join(laterLine, ", "),
				"  -> IMPORTANT: Later-line FDA approval is STILL Tier I if the biomarker IS the therapeutic indication.")
		} else if len(firstLine) > 0 {
			lines = append(lines, "", "FDA FIRST-LINE APPROVAL: "+strings.Join(firstLine, ", ")+" -> Strong Tier I signal")
		}
	}

	if len(stats.Conflicts) > 0 {
		lines = append(lines, "", "CONFLICTS DETECTED:")
		for i, c := range stats.Conflicts {
			if i >= 5 {
				break
			}
			lines = append(lines, fmt.Sprintf("  - %s: SENSITIVITY in %s (%d entries) vs RESISTANCE in %s (%d entries)",
				c.Drug, c.SensitivityContext, c.SensitivityCount, c.ResistanceContext, c.ResistanceCount))
		}
	}

	lines = append(lines, rule(), "")
	return strings.Join(lines, "\n")
}

func signalInterpretation(signal preprocessor.DominantSignal, sensPct, resPct float64) (string, bool) {
	switch signal {
	case preprocessor.SignalSensitivityOnly:
		return "INTERPRETATION: All evidence shows sensitivity. No resistance signals.", true
	case preprocessor.SignalResistanceOnly:
		return "INTERPRETATION: All evidence shows resistance. This is a RESISTANCE MARKER.", true
	case preprocessor.SignalSensitivityDominant:
		return fmt.Sprintf("INTERPRETATION: Sensitivity evidence strongly predominates (%.0f%%). Minor resistance signals likely context-specific.", sensPct), true
	case preprocessor.SignalResistanceDominant:
		return fmt.Sprintf("INTERPRETATION: Resistance evidence strongly predominates (%.0f%%). Minor sensitivity signals likely context-specific.", resPct), true
	case preprocessor.SignalMixed:
		return "INTERPRETATION: Mixed signals - carefully evaluate tumor type and drug contexts below.", true
	default:
		return "", false
	}
}

func formatLevelCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}

func drugNameOf(r domain.DrugLabelRecord) string {
	if r.BrandName != "" {
		return r.BrandName
	}
	if r.GenericName != "" {
		return r.GenericName
	}
	return r.DrugName
}

// FormatDrugAggregationSummary renders the top-10 drug-level aggregation
// table (spec §4.5.7 / §4.6 part 2).
func FormatDrugAggregationSummary(ev *domain.Evidence) string {
	aggregated := preprocessor.AggregateEvidenceByDrug(ev)
	if len(aggregated) == 0 {
		return ""
	}

	lines := []string{"", "DRUG-LEVEL SUMMARY (aggregated from all sources):"}
	for i, d := range aggregated {
		if i >= 10 {
			break
		}
		sensStr := fmt.Sprintf("%d sens", d.SensitivityCount)
		if len(d.SensitivityLevels) > 0 {
			sensStr += " (" + formatLevelCounts(d.SensitivityLevels) + ")"
		}
		resStr := fmt.Sprintf("%d res", d.ResistanceCount)
		if len(d.ResistanceLevels) > 0 {
			resStr += " (" + formatLevelCounts(d.ResistanceLevels) + ")"
		}
		lines = append(lines, fmt.Sprintf("  %d. %s: %s, %s -> %s [Level %s]",
			i+1, d.Drug, sensStr, resStr, d.NetSignal, d.BestLevel))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}
