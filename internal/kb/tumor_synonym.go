package kb

import "strings"

// TumorTypeMappings is the fixed cancer-site synonym map spec §4.5.1
// requires as data (not code), seeded with ~40 sites. Grounded on the
// TUMOR_TYPE_MAPPINGS references throughout original_source/ (cgi.py,
// civic.py, vicc.py all import and consult the same table); the table
// itself was filtered out of the retrieved original_source/constants.py,
// so it is reconstructed here from every usage site's example entries and
// spec.md's explicit hints.
var TumorTypeMappings = map[string][]string{
	"nsclc":     {"non-small cell lung", "non-small cell lung cancer", "lung adenocarcinoma", "lung squamous cell carcinoma"},
	"sclc":      {"small cell lung", "small cell lung cancer"},
	"crc":       {"colorectal", "colon", "rectal", "colorectal cancer"},
	"mel":       {"melanoma", "cutaneous melanoma", "malignant melanoma"},
	"brca":      {"breast", "breast cancer", "breast carcinoma"},
	"paad":      {"pancreatic", "pancreas", "pancreatic cancer", "pancreatic adenocarcinoma"},
	"gbm":       {"glioblastoma", "glioblastoma multiforme"},
	"luad":      {"lung adenocarcinoma"},
	"lusc":      {"lung squamous cell carcinoma"},
	"ov":        {"ovarian", "ovarian cancer", "ovarian carcinoma"},
	"prad":      {"prostate", "prostate cancer", "prostate adenocarcinoma"},
	"thca":      {"thyroid", "thyroid cancer", "papillary thyroid carcinoma"},
	"hcc":       {"hepatocellular", "hepatocellular carcinoma", "liver cancer"},
	"rcc":       {"renal cell carcinoma", "renal", "kidney cancer", "kidney"},
	"blca":      {"bladder", "bladder cancer", "urothelial carcinoma"},
	"stad":      {"gastric", "stomach", "gastric cancer", "gastric adenocarcinoma"},
	"esca":      {"esophageal", "esophagus", "esophageal cancer"},
	"head_neck": {"head and neck", "head and neck squamous cell carcinoma", "hnscc"},
	"aml":       {"acute myeloid leukemia", "aml"},
	"cml":       {"chronic myeloid leukemia", "cml"},
	"all":       {"acute lymphoblastic leukemia"},
	"cll":       {"chronic lymphocytic leukemia"},
	"dlbcl":     {"diffuse large b-cell lymphoma"},
	"mm":        {"multiple myeloma"},
	"gist":      {"gastrointestinal stromal tumor", "gist"},
	"sarcoma":   {"sarcoma", "soft tissue sarcoma"},
	"osteosarcoma": {"osteosarcoma", "bone sarcoma"},
	"cervical":  {"cervical cancer", "cervical carcinoma"},
	"endometrial": {"endometrial cancer", "uterine cancer", "endometrial carcinoma"},
	"uveal_melanoma": {"uveal melanoma", "ocular melanoma"},
	"cholangiocarcinoma": {"cholangiocarcinoma", "bile duct cancer"},
	"mesothelioma": {"mesothelioma", "pleural mesothelioma"},
	"neuroblastoma": {"neuroblastoma"},
	"medulloblastoma": {"medulloblastoma"},
	"merkel_cell": {"merkel cell carcinoma"},
	"thymoma":   {"thymoma", "thymic carcinoma"},
	"adrenocortical": {"adrenocortical carcinoma"},
	"chordoma":  {"chordoma"},
	"appendiceal": {"appendiceal cancer", "appendiceal adenocarcinoma"},
	"small_bowel": {"small bowel cancer", "small intestine cancer"},
	"anal":      {"anal cancer", "anal squamous cell carcinoma"},
	"penile":    {"penile cancer"},
	"testicular": {"testicular cancer", "germ cell tumor"},
	"vulvar":    {"vulvar cancer"},
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// TumorMatches implements spec §4.5.1: true when either string contains the
// other (case-insensitive, whitespace-normalized) or both belong to the
// same synonym-map entry.
func TumorMatches(userTumor, kbDisease string) bool {
	if userTumor == "" || kbDisease == "" {
		return false
	}
	u := normalizeWhitespace(userTumor)
	k := normalizeWhitespace(kbDisease)
	if strings.Contains(u, k) || strings.Contains(k, u) {
		return true
	}
	for abbrev, names := range TumorTypeMappings {
		matchesU := u == abbrev || containsAny(u, names...)
		matchesK := k == abbrev || containsAny(k, names...)
		if matchesU && matchesK {
			return true
		}
	}
	return false
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
