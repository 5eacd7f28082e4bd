package kb

import "testing"

func TestMatchesAlterationPattern(t *testing.T) {
	cases := []struct {
		pattern, gene, variant string
		want                   bool
	}{
		{"EGFR:L858R", "EGFR", "L858R", true},
		{"EGFR:L858R", "EGFR", "L861Q", false},
		{"EGFR:G719.", "EGFR", "G719S", true},
		{"EGFR:G719.", "EGFR", "G719A", true},
		{"EGFR:G719.", "EGFR", "G719SS", false}, // wrong length after base
		{"KRAS:.13.", "KRAS", "G13D", true},
		{"KRAS:.13.", "KRAS", "G12D", false},
		{"KRAS:.", "KRAS", "G12C", true},
		{"EGFR:G719A,G719S,G719C", "EGFR", "G719C", true},
		{"EGFR:G719A,G719S,G719C", "EGFR", "G719D", false},
	}
	for _, c := range cases {
		got := MatchesAlterationPattern(c.pattern, c.gene, c.variant)
		if got != c.want {
			t.Errorf("MatchesAlterationPattern(%q,%q,%q) = %v, want %v", c.pattern, c.gene, c.variant, got, c.want)
		}
	}
}
