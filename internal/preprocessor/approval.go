package preprocessor

import (
	"strconv"
	"strings"

	"github.com/variant-actionability/assessor/internal/kb"
)

// TumorMatches is the preprocessor's tumor-match predicate (spec §4.5.1),
// delegating to kb.TumorMatches, the synonym-map logic the tumor-ontology
// client also uses.
func TumorMatches(userTumor, kbDisease string) bool {
	return kb.TumorMatches(userTumor, kbDisease)
}

// kitExonMap maps KIT variants to their exon number, per spec §4.5.2.
var kitExonMap = map[string]int{
	"V560D": 9, "V559D": 9,
	"D816V": 17, "D816H": 17, "D816Y": 17,
}

var egfrCommonMutations = map[string]bool{"L858R": true, "EXON19DEL": true}
var egfrUncommonMutations = map[string]bool{"G719A": true, "G719C": true, "G719S": true, "L861Q": true, "S768I": true}
var egfrResistanceMutations = map[string]bool{"T790M": true, "C797S": true}

// VariantMatchesApprovalClass implements spec §4.5.2's gene-specific rule
// table deciding whether an FDA indication text applies to this specific
// variant (not merely to the gene in general).
func VariantMatchesApprovalClass(gene, variant, indicationLower string) bool {
	geneLower := strings.ToLower(gene)
	variantUpper := strings.ToUpper(variant)
	variantLower := strings.ToLower(variant)

	exclusions := []string{
		"wild-type", "wild type", "wildtype",
		geneLower + "-negative",
		"without mutations",
	}
	for _, pattern := range exclusions {
		if strings.Contains(indicationLower, pattern) {
			return false
		}
	}

	switch geneLower {
	case "braf":
		if strings.Contains(indicationLower, "v600") {
			switch variantUpper {
			case "V600E", "V600K", "V600D", "V600R":
				return true
			default:
				return false
			}
		}
		return false

	case "kras", "nras":
		if strings.Contains(indicationLower, "g12c") {
			return variantUpper == "G12C"
		}
		genericPhrases := []string{geneLower + " mutation", geneLower + "-mutated", geneLower + "-positive"}
		for _, phrase := range genericPhrases {
			if strings.Contains(indicationLower, phrase) {
				return !strings.Contains(indicationLower, "wild-type")
			}
		}
		return false

	case "kit":
		if strings.Contains(indicationLower, variantLower) {
			return true
		}
		if exon, ok := kitExonMap[variantUpper]; ok {
			if strings.Contains(indicationLower, exonPhrase(exon)) {
				return true
			}
		}
		kitPhrases := []string{"kit-positive", "kit-mutated", "kit mutation", "kit (cd117)"}
		for _, phrase := range kitPhrases {
			if strings.Contains(indicationLower, phrase) {
				return true
			}
		}
		return false

	case "egfr":
		if strings.Contains(indicationLower, variantLower) {
			return true
		}
		if egfrCommonMutations[variantUpper] || strings.Contains(variantUpper, "DEL19") || strings.Contains(variantUpper, "E746") {
			if strings.Contains(indicationLower, "common") || strings.Contains(indicationLower, "exon 19") || strings.Contains(indicationLower, "l858r") {
				return true
			}
		}
		if egfrUncommonMutations[variantUpper] {
			if strings.Contains(indicationLower, "uncommon") || strings.Contains(indicationLower, "g719") {
				return true
			}
		}
		if egfrResistanceMutations[variantUpper] {
			if strings.Contains(indicationLower, "t790m") || strings.Contains(indicationLower, "resistance") {
				return true
			}
		}
		if strings.Contains(indicationLower, "egfr mutation") || strings.Contains(indicationLower, "egfr-mutated") {
			if !strings.Contains(indicationLower, "specific") && !strings.Contains(indicationLower, "particular") {
				return true
			}
		}
		return false

	default:
		return true
	}
}

func exonPhrase(exon int) string {
	return "exon " + strconv.Itoa(exon)
}
