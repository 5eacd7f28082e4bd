package normalizer

// AminoAcid3To1 maps three-letter amino acid codes to one-letter codes.
var AminoAcid3To1 = map[string]string{
	"ALA": "A", "ARG": "R", "ASN": "N", "ASP": "D", "CYS": "C",
	"GLN": "Q", "GLU": "E", "GLY": "G", "HIS": "H", "ILE": "I",
	"LEU": "L", "LYS": "K", "MET": "M", "PHE": "F", "PRO": "P",
	"SER": "S", "THR": "T", "TRP": "W", "TYR": "Y", "VAL": "V",
	"TER": "*", "STOP": "*", "SEC": "U", "PYL": "O",
}

// AminoAcid1To3 is the inverse map, built once at init.
var AminoAcid1To3 = func() map[string]string {
	m := make(map[string]string, len(AminoAcid3To1))
	// Prefer the canonical three-letter spelling for Ter over Stop.
	preferred := map[string]string{"*": "Ter"}
	for three, one := range AminoAcid3To1 {
		if _, ok := preferred[one]; ok {
			continue
		}
		m[one] = titleCase(three)
	}
	for one, three := range preferred {
		m[one] = three
	}
	return m
}()

func titleCase(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	for i := range b {
		if i == 0 {
			if b[i] >= 'a' && b[i] <= 'z' {
				b[i] -= 32
			}
		} else {
			if b[i] >= 'A' && b[i] <= 'Z' {
				b[i] += 32
			}
		}
	}
	return string(b)
}
