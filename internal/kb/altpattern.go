// Alteration-pattern DSL matcher for the curated-biomarker client (spec §4.3).
// Grounded verbatim on cgi.py's CGIClient._variant_matches.
package kb

import (
	"regexp"
	"strconv"
	"strings"
)

var missenseShapePattern = regexp.MustCompile(`^[A-Z](\d+)[A-Z]$`)

// MatchesAlterationPattern reports whether variant (e.g. "G719S") matches
// the CGI-style alteration pattern string (e.g. "EGFR:G719.,L858R") for the
// given gene. Matching is case-insensitive; the gene prefix is optional on
// each comma-separated element; a leading "p." on variant is stripped.
func MatchesAlterationPattern(alterationPattern, gene, variant string) bool {
	if alterationPattern == "" {
		return false
	}
	geneUpper := strings.ToUpper(gene)
	variantUpper := strings.ToUpper(strings.ReplaceAll(variant, "p.", ""))
	variantUpper = strings.ReplaceAll(variantUpper, "P.", "")

	stripped := strings.ReplaceAll(alterationPattern, geneUpper+":", "")
	parts := strings.Split(stripped, ",")

	for _, raw := range parts {
		part := strings.ToUpper(strings.TrimSpace(raw))
		if part == "" {
			continue
		}
		if idx := strings.LastIndex(part, ":"); idx >= 0 {
			part = part[idx+1:]
		}

		switch {
		case part == variantUpper:
			return true
		case part == ".":
			return true
		case strings.HasSuffix(part, ".") && !strings.HasPrefix(part, "."):
			basePattern := part[:len(part)-1]
			if strings.HasPrefix(variantUpper, basePattern) && len(variantUpper) == len(basePattern)+1 {
				return true
			}
		case strings.HasPrefix(part, ".") && strings.HasSuffix(part, ".") && len(part) > 2:
			positionStr := part[1 : len(part)-1]
			if _, err := strconv.Atoi(positionStr); err == nil {
				if m := missenseShapePattern.FindStringSubmatch(variantUpper); m != nil {
					if m[1] == positionStr {
						return true
					}
				}
			}
		}
	}
	return false
}
