package kb

import "strings"

// GeneAliases is the configurable gene-alias map spec §4.2 requires every
// client consult before building a query (e.g. ERBB2↔HER2). Seeded with the
// aliases that recur across the recovered source clients' gene handling.
var GeneAliases = map[string][]string{
	"ERBB2": {"HER2", "HER-2", "HER2/NEU"},
	"NRAS":  {"N-RAS"},
	"KRAS":  {"K-RAS"},
	"HRAS":  {"H-RAS"},
	"MET":   {"C-MET"},
	"KIT":   {"C-KIT", "CD117"},
	"PDGFRA": {"PDGFR-ALPHA"},
	"FGFR1": {"FLG"},
}

// AliasesFor returns every spelling (canonical + known aliases) for gene.
func AliasesFor(gene string) []string {
	g := strings.ToUpper(strings.TrimSpace(gene))
	out := []string{g}
	if aliases, ok := GeneAliases[g]; ok {
		out = append(out, aliases...)
	}
	// reverse lookup: gene might be given as the alias itself
	for canonical, aliases := range GeneAliases {
		for _, a := range aliases {
			if strings.EqualFold(a, g) {
				out = append(out, canonical)
			}
		}
	}
	return out
}

// GenesToSearch mirrors fda.py's GENE_ALIASES-driven genes_to_search list:
// the canonical gene plus every alias, deduplicated, canonical first.
func GenesToSearch(gene string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, g := range AliasesFor(gene) {
		if _, ok := seen[g]; !ok {
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	return out
}
