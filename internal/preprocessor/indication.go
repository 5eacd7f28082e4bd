// Package preprocessor implements the deterministic core of spec §4.5: pure
// functions over an Evidence bundle and an optional tumor type that produce
// a tier *hint* and a human-readable summary, never the final tier.
// Grounded verbatim on original_source/.../models/evidence/{evidence.py,fda.py}.
package preprocessor

import (
	"strings"

	"github.com/variant-actionability/assessor/internal/domain"
)

var tumorKeywordGroups = map[string][]string{
	"colorectal": {"colorectal", "colon", "rectal", "crc", "mcrc"},
	"melanoma":   {"melanoma"},
	"lung":       {"lung", "nsclc", "non-small cell"},
	"breast":     {"breast"},
	"thyroid":    {"thyroid", "atc", "anaplastic thyroid"},
}

var nextSectionMarkers = []string{
	"non-small cell lung cancer",
	"nsclc)",
	"melanoma •",
	"breast cancer",
	"thyroid cancer",
	"limitations of use",
	"1.1 braf",
	"1.2 braf",
	"1.3 braf",
	"1.4 ",
}

var laterLinePhrases = []string{
	"after prior therapy", "after progression", "following progression",
	"following recurrence", "second-line", "second line", "third-line",
	"third line", "previously treated", "refractory", "who have failed",
	"after failure", "following prior", "disease progression",
}

var firstLinePhrases = []string{
	"first-line", "first line", "frontline", "initial treatment",
	"treatment-naive", "previously untreated",
}

var acceleratedPhrases = []string{
	"accelerated approval", "approved under accelerated",
	"contingent upon verification", "confirmatory trial",
}

// ParseIndicationForTumor derives {tumor_match, line_of_therapy,
// approval_type, indication_excerpt} from (indication, tumor_type), per
// spec §3's "derivation is pure" invariant on FDAApproval.
func ParseIndicationForTumor(record domain.DrugLabelRecord, tumorType string) domain.FDAApproval {
	result := domain.FDAApproval{
		DrugLabelRecord: record,
		LineOfTherapy:   domain.LineUnspecified,
		ApprovalType:    domain.ApprovalUnspecified,
	}

	if record.Indication == "" || tumorType == "" {
		return result
	}

	indicationLower := strings.ToLower(record.Indication)
	tumorLower := strings.ToLower(tumorType)

	var tumorKeys []string
	for _, keywords := range tumorKeywordGroups {
		for _, kw := range keywords {
			if strings.Contains(tumorLower, kw) {
				tumorKeys = keywords
				break
			}
		}
		if tumorKeys != nil {
			break
		}
	}
	if tumorKeys == nil {
		tumorKeys = []string{tumorLower}
	}

	var matchedSection string
	tumorMatch := false
	for _, kw := range tumorKeys {
		idx := strings.Index(indicationLower, kw)
		if idx < 0 {
			continue
		}
		tumorMatch = true
		start := max0(idx - 50)
		end := len(record.Indication)
		for _, marker := range nextSectionMarkers {
			searchFrom := idx + len(kw) + 100
			if searchFrom > len(indicationLower) {
				continue
			}
			nextIdx := strings.Index(indicationLower[searchFrom:], marker)
			if nextIdx < 0 {
				continue
			}
			nextIdx += searchFrom
			if nextIdx > idx && nextIdx < end {
				end = nextIdx
			}
		}
		matchedSection = sliceSafe(record.Indication, start, end)
		break
	}

	if !tumorMatch {
		return result
	}
	result.TumorMatch = true

	matchedLower := strings.ToLower(matchedSection)
	for _, phrase := range laterLinePhrases {
		if strings.Contains(matchedLower, phrase) {
			result.LineOfTherapy = domain.LineLater
			break
		}
	}
	if result.LineOfTherapy == domain.LineUnspecified {
		for _, phrase := range firstLinePhrases {
			if strings.Contains(matchedLower, phrase) {
				result.LineOfTherapy = domain.LineFirst
				break
			}
		}
	}

	result.ApprovalType = domain.ApprovalFull
	for _, phrase := range acceleratedPhrases {
		if strings.Contains(matchedLower, phrase) {
			result.ApprovalType = domain.ApprovalAccelerated
			break
		}
	}

	result.IndicationExcerpt = truncateTo(matchedSection, 300)
	return result
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
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

func truncateTo(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
