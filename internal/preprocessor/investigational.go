package preprocessor

import "strings"

// investigationalPairs is the flat gene/tumor table spec §4.5.4 rule 1
// names; per DESIGN.md's Open Question #1 decision this table does NOT
// vary by line of therapy. "*" matches any tumor type.
var investigationalPairs = map[string][]string{
	"kras":   {"pancreatic", "pancreas"},
	"nras":   {"melanoma"},
	"tp53":   {"*"},
	"apc":    {"colorectal", "colon"},
	"vhl":    {"renal", "kidney"},
	"smad4":  {"pancreatic", "pancreas"},
	"cdkn2a": {"melanoma"},
	"arid1a": {"*"},
}

// IsInvestigationalOnly reports whether (gene, tumorType) is a known
// investigational-only combination with no approved therapy.
func IsInvestigationalOnly(gene, tumorType string) bool {
	geneLower := strings.ToLower(gene)
	tumorLower := strings.ToLower(tumorType)

	tumors, ok := investigationalPairs[geneLower]
	if !ok {
		return false
	}
	for _, t := range tumors {
		if t == "*" || strings.Contains(tumorLower, t) {
			return true
		}
	}
	return false
}
