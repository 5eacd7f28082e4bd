// Harmonized-KB (meta-aggregator) client — grounded on
// original_source/.../api/vicc.py.
package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/variant-actionability/assessor/internal/domain"
)

type HarmonizedKBClient struct {
	client *ResilientClient
	cfg    domain.KBClientConfig
}

func NewHarmonizedKBClient(cfg domain.KBClientConfig, log *logrus.Logger) *HarmonizedKBClient {
	return &HarmonizedKBClient{client: NewResilientClient("harmonized-kb", cfg, log), cfg: cfg}
}

func (c *HarmonizedKBClient) Close() { c.client.Close() }

// vicResponse mirrors the real VICC MetaKB /associations response: an
// Elasticsearch-style hits.hits[] envelope, each hit carrying a nested
// association plus a features[] list that names the gene/variant, per
// vicc.py's VICCClient._parse_association.
type vicResponse struct {
	Hits struct {
		Hits []vicHit `json:"hits"`
	} `json:"hits"`
}

type vicHit struct {
	Association struct {
		Description    string          `json:"description"`
		ResponseType   string          `json:"response_type"`
		PublicationURL json.RawMessage `json:"publication_url"`
		Oncogenic      string          `json:"oncogenic"`
		Evidence       []struct {
			EvidenceType struct {
				SourceName string `json:"sourceName"`
			} `json:"evidenceType"`
		} `json:"evidence"`
	} `json:"association"`
	Features []struct {
		GeneSymbol string `json:"geneSymbol"`
		Name       string `json:"name"`
	} `json:"features"`
	Diseases     string          `json:"diseases"`
	Drugs        string          `json:"drugs"`
	EvidenceLabel string         `json:"evidence_label"`
}

// buildVICCQuery mirrors vicc.py's VICCClient._build_query: gene uppercased,
// optional variant with a leading "p." stripped and uppercased, joined with
// a Lucene "AND".
func buildVICCQuery(gene, variant string) string {
	parts := []string{strings.ToUpper(gene)}
	if variant != "" {
		clean := strings.ToUpper(strings.ReplaceAll(variant, "p.", ""))
		parts = append(parts, clean)
	}
	return strings.Join(parts, " AND ")
}

// FetchAssertions runs a Lucene-style "GENE AND VARIANT" query against the
// harmonized meta-aggregator and filters out compound-mutation-resistance
// descriptions before returning the remaining assertions.
func (c *HarmonizedKBClient) FetchAssertions(ctx context.Context, gene, variant string) ([]domain.HarmonizedAssertion, error) {
	query := buildVICCQuery(gene, variant)
	base := c.cfg.BaseURL
	if base == "" {
		base = "https://search.cancervariants.org/api/v1"
	}

	resp, body, err := c.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s/associations?q=%s&size=50", base, url.QueryEscape(query))
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, domain.TransportError("harmonized-kb", err)
	}
	if resp.StatusCode == http.StatusNotFound || len(body) == 0 {
		return nil, nil
	}

	var parsed vicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, domain.ParseError("harmonized-kb", err)
	}

	var out []domain.HarmonizedAssertion
	for _, h := range parsed.Hits.Hits {
		assertion := parseVICCHit(h, gene)
		if isCompoundResistanceDescription(assertion, variant) {
			continue
		}
		out = append(out, assertion)
	}
	return out, nil
}

// parseVICCHit mirrors vicc.py's _parse_association: the gene/variant are
// recovered from features[] (the variant is whatever's left of a feature
// name after stripping the matched gene symbol out of it), drugs arrive as
// a single space/comma-joined string, and the A/B/C/D grade lives in the
// hit's top-level evidence_label rather than inside association.
func parseVICCHit(h vicHit, queryGene string) domain.HarmonizedAssertion {
	gene := ""
	variant := ""
	for _, f := range h.Features {
		if f.GeneSymbol != "" {
			gene = f.GeneSymbol
		}
		if f.Name != "" && gene != "" && strings.Contains(f.Name, gene) {
			variant = strings.TrimSpace(strings.ReplaceAll(f.Name, gene, ""))
		}
	}
	if gene == "" {
		gene = strings.ToUpper(queryGene)
	}

	var drugs []string
	if h.Drugs != "" {
		for _, d := range strings.Fields(strings.ReplaceAll(h.Drugs, ",", " ")) {
			if d != "" {
				drugs = append(drugs, d)
			}
		}
	}

	source := "vicc"
	for _, ev := range h.Association.Evidence {
		if ev.EvidenceType.SourceName != "" {
			source = strings.ToLower(ev.EvidenceType.SourceName)
			break
		}
	}

	return domain.HarmonizedAssertion{
		Description:    h.Association.Description,
		Gene:           gene,
		Variant:        variant,
		Disease:        h.Diseases,
		Drugs:          drugs,
		EvidenceLevel:  h.EvidenceLabel,
		ResponseType:   h.Association.ResponseType,
		Source:         source,
		PublicationURL: rawPublicationURL(h.Association.PublicationURL),
		Oncogenic:      h.Association.Oncogenic,
	}
}

// rawPublicationURL normalizes publication_url, which vicc.py notes may
// arrive as either a bare string or a list of strings.
func rawPublicationURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.Quote(n.String())
	}
	return ""
}

// isCompoundResistanceDescription mirrors vicc.py's
// _is_compound_mutation_resistance: only resistance-typed associations are
// checked, against phrases indicating the resistance arose from a
// secondary/acquired mutation rather than the queried variant itself.
func isCompoundResistanceDescription(assertion domain.HarmonizedAssertion, variant string) bool {
	if variant == "" || !assertion.IsResistance() {
		return false
	}
	descLower := strings.ToLower(assertion.Description)
	variantLower := strings.ToLower(variant)
	geneLower := strings.ToLower(assertion.Gene)

	indicators := []string{
		"secondary mutation",
		"acquired mutation",
		"harboring " + variantLower + " and ",
		"developed resistance",
		"resistance developed",
	}
	if geneLower != "" {
		indicators = append(indicators, variantLower+" and "+geneLower)
	}

	for _, indicator := range indicators {
		if indicator != "" && strings.Contains(descLower, indicator) {
			return true
		}
	}
	return false
}
