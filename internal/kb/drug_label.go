// Drug-label client — grounded on original_source/.../api/fda.py.
package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/variant-actionability/assessor/internal/cache"
	"github.com/variant-actionability/assessor/internal/domain"
)

type DrugLabelClient struct {
	client *ResilientClient
	cfg    domain.KBClientConfig
	cache  *cache.ResponseCache
}

func NewDrugLabelClient(cfg domain.KBClientConfig, log *logrus.Logger) *DrugLabelClient {
	return &DrugLabelClient{client: NewResilientClient("drug-label", cfg, log), cfg: cfg}
}

// WithCache attaches a shared response cache for repeat openFDA label
// searches across requests.
func (c *DrugLabelClient) WithCache(rc *cache.ResponseCache) *DrugLabelClient {
	c.cache = rc
	return c
}

func (c *DrugLabelClient) Close() { c.client.Close() }

type fdaLabelRecord struct {
	OpenFDA struct {
		BrandName   []string `json:"brand_name"`
		GenericName []string `json:"generic_name"`
	} `json:"openfda"`
	IndicationsAndUsage []string `json:"indications_and_usage"`
	ClinicalStudies     []string `json:"clinical_studies"`
}

type fdaLabelResponse struct {
	Results []fdaLabelRecord `json:"results"`
}

var codonShapePattern = regexp.MustCompile(`^([A-Z])(\d+)([A-Z])$`)

// FetchDrugApprovals implements the two-strategy search of spec §4.2:
// gene+variant(+codon-wildcard) full-text search, falling back to a bare
// gene search across indications, capped at 10, deduplicated by brand name.
func (c *DrugLabelClient) FetchDrugApprovals(ctx context.Context, gene, variant string) ([]fdaLabelRecord, error) {
	geneUpper := strings.ToUpper(gene)
	genesToSearch := GenesToSearch(geneUpper)

	var approvals []fdaLabelRecord
	seen := map[string]struct{}{}

	variantClean := strings.ToUpper(strings.TrimSpace(variant))
	for _, prefix := range []string{"P.", "C.", "G."} {
		if strings.HasPrefix(variantClean, prefix) {
			variantClean = variantClean[2:]
			break
		}
	}

	if variantClean != "" {
		searchVariants := []string{variantClean}
		if m := codonShapePattern.FindStringSubmatch(variantClean); m != nil {
			searchVariants = append(searchVariants, m[1]+m[2]+"X")
		}
		for _, searchGene := range genesToSearch {
			for _, searchVar := range searchVariants {
				query := fmt.Sprintf("%s AND %s", searchGene, searchVar)
				resp, err := c.search(ctx, query, 15)
				if err != nil {
					return nil, err
				}
				for _, r := range resp.Results {
					addUnique(&approvals, seen, r)
				}
			}
		}
	}

	if len(approvals) == 0 {
		for _, searchGene := range genesToSearch {
			query := fmt.Sprintf("indications_and_usage:%s", searchGene)
			resp, err := c.search(ctx, query, 15)
			if err != nil {
				return nil, err
			}
			for _, r := range resp.Results {
				addUnique(&approvals, seen, r)
			}
		}
	}

	if len(approvals) > 10 {
		approvals = approvals[:10]
	}
	return approvals, nil
}

func addUnique(approvals *[]fdaLabelRecord, seen map[string]struct{}, r fdaLabelRecord) {
	var brand string
	if len(r.OpenFDA.BrandName) > 0 {
		brand = r.OpenFDA.BrandName[0]
	}
	if brand == "" {
		return
	}
	if _, ok := seen[brand]; ok {
		return
	}
	seen[brand] = struct{}{}
	*approvals = append(*approvals, r)
}

func (c *DrugLabelClient) search(ctx context.Context, query string, limit int) (*fdaLabelResponse, error) {
	cacheKey := fmt.Sprintf("%s|%d", query, limit)
	if c.cache != nil {
		if cached, hit, err := c.cache.Get(ctx, "drug-label", cacheKey); err == nil && hit {
			var out fdaLabelResponse
			if json.Unmarshal(cached, &out) == nil {
				return &out, nil
			}
		}
	}

	base := c.cfg.BaseURL
	if base == "" {
		base = "https://api.fda.gov/drug"
	}
	_, body, err := c.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s/label.json?search=%s&limit=%d", base, url.QueryEscape(query), limit)
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, domain.TransportError("drug-label", err)
	}
	if len(body) == 0 {
		return &fdaLabelResponse{}, nil
	}
	var out fdaLabelResponse
	if err := json.Unmarshal(body, &out); err != nil {
		// 404 from openFDA returns a small {"error":...} payload treated as empty.
		return &fdaLabelResponse{}, nil
	}
	if c.cache != nil {
		_ = c.cache.Set(ctx, "drug-label", cacheKey, body)
	}
	return &out, nil
}

// ParseApprovalData implements spec §4.2's drug-label parsing: brand/generic
// extraction, verbatim variant-in-indications detection with bullet-scoped
// excerpt, and a clinical-studies fallback note when the variant (or its
// codon-wildcard class) appears only there.
func ParseApprovalData(record fdaLabelRecord, gene, variant string) *domain.FDAApproval {
	var brand, generic string
	if len(record.OpenFDA.BrandName) > 0 {
		brand = record.OpenFDA.BrandName[0]
	}
	if len(record.OpenFDA.GenericName) > 0 {
		generic = record.OpenFDA.GenericName[0]
	}
	if brand == "" && generic == "" {
		return nil
	}

	indicationText := strings.Join(record.IndicationsAndUsage, " ")
	variantUpper := strings.ToUpper(variant)
	indicationUpper := strings.ToUpper(indicationText)

	variantInIndications := false
	var indicationVariantNote string
	if variant != "" && strings.Contains(indicationUpper, variantUpper) {
		variantInIndications = true
		idx := strings.Index(indicationUpper, variantUpper)
		start := lastIndexBefore(indicationText, "•", idx)
		if start == -1 {
			start = max0(idx - 100)
		}
		end := indexAfter(indicationText, "•", idx+len(variantUpper))
		if end == -1 {
			end = minLen(len(indicationText), idx+300)
		}
		indicationVariantNote = fmt.Sprintf("[FDA APPROVED FOR %s: %s]", variantUpper, strings.TrimSpace(sliceSafe(indicationText, start, end)))
	}

	var clinicalStudiesNote string
	if variant != "" {
		clinicalText := strings.Join(record.ClinicalStudies, " ")
		clinicalUpper := strings.ToUpper(clinicalText)
		searchPatterns := []string{variantUpper}
		if m := codonShapePattern.FindStringSubmatch(variantUpper); m != nil {
			searchPatterns = append(searchPatterns, m[1]+m[2]+"X")
		}
		for _, pattern := range searchPatterns {
			if idx := strings.Index(clinicalUpper, pattern); idx >= 0 {
				start := max0(idx - 100)
				end := minLen(len(clinicalText), idx+200)
				snippet := strings.TrimSpace(sliceSafe(clinicalText, start, end))
				if start > 0 {
					snippet = "..." + snippet
				}
				if end < len(clinicalText) {
					snippet = snippet + "..."
				}
				clinicalStudiesNote = fmt.Sprintf("[Clinical studies mention %s (variant class includes %s): %s]", pattern, variant, snippet)
				break
			}
		}
	}

	fullIndication := ""
	if indicationVariantNote != "" {
		fullIndication = indicationVariantNote + "\n\n"
	}
	fullIndication += truncateTo(indicationText, 1500)
	if clinicalStudiesNote != "" && !variantInIndications {
		fullIndication = fullIndication + "\n\n" + clinicalStudiesNote
	}
	fullIndication = truncateTo(fullIndication, 2500)

	drugName := brand
	if drugName == "" {
		drugName = generic
	}

	return &domain.FDAApproval{
		DrugLabelRecord: domain.DrugLabelRecord{
			DrugName:                 drugName,
			BrandName:                brand,
			GenericName:              generic,
			Indication:               fullIndication,
			MarketingStatus:          "Prescription",
			Gene:                     gene,
			VariantInIndications:     variantInIndications,
			VariantInClinicalStudies: clinicalStudiesNote != "",
		},
		ApprovalType: domain.ApprovalUnspecified,
	}
}

func lastIndexBefore(s, sub string, before int) int {
	if before < 0 || before > len(s) {
		before = len(s)
	}
	return strings.LastIndex(s[:before], sub)
}

func indexAfter(s, sub string, after int) int {
	if after < 0 || after > len(s) {
		return -1
	}
	idx := strings.Index(s[after:], sub)
	if idx == -1 {
		return -1
	}
	return after + idx
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func minLen(a, b int) int {
	if a < b {
		return a
	}
	return b
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
