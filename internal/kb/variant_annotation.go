// Variant-annotation client — grounded on original_source/.../api/myvariant.py.
package kb

import (
	"bytes"
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

const variantAnnotationFields = "civic,clinvar,cosmic,dbsnp,cadd,entrezgene,cosmic.cosmic_id," +
	"clinvar.variant_id,clinvar.rcv,dbsnp.rsid,hgvs,snpeff,dbnsfp.polyphen2.hdiv.pred," +
	"dbnsfp.cadd.phred,dbnsfp.alphamissense,gnomad_exome.af.af,vcf.alt,vcf.ref"

const (
	civicAPIBase    = "https://civicdb.org/api"
	ncbiEutilsBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
)

// VariantAnnotationClient is the primary per-variant annotation lookup
// (spec §4.2 "Variant-annotation client"). When MyVariant.info carries no
// civic/clinvar data for a variant, it falls back to a direct CIViC V2
// GraphQL query and NCBI's ClinVar E-utilities, per myvariant.py's
// MyVariantClient.
type VariantAnnotationClient struct {
	client       *ResilientClient
	cfg          domain.KBClientConfig
	cache        *cache.ResponseCache
	log          *logrus.Logger
	civicBaseURL string
	ncbiBaseURL  string
}

func NewVariantAnnotationClient(cfg domain.KBClientConfig, log *logrus.Logger) *VariantAnnotationClient {
	return &VariantAnnotationClient{
		client:       NewResilientClient("variant-annotation", cfg, log),
		cfg:          cfg,
		log:          log,
		civicBaseURL: civicAPIBase,
		ncbiBaseURL:  ncbiEutilsBase,
	}
}

// WithCache attaches a shared response cache, memoizing raw query bodies
// across requests for the cache's TTL (spec's KB-client caching
// concern, beyond the on-disk biomarker TSV cache).
func (c *VariantAnnotationClient) WithCache(rc *cache.ResponseCache) *VariantAnnotationClient {
	c.cache = rc
	return c
}

// WithCivicBaseURL overrides the CIViC GraphQL fallback's base URL (tests
// point this at an httptest.Server instead of civicdb.org).
func (c *VariantAnnotationClient) WithCivicBaseURL(base string) *VariantAnnotationClient {
	c.civicBaseURL = base
	return c
}

// WithNCBIBaseURL overrides the ClinVar E-utilities fallback's base URL.
func (c *VariantAnnotationClient) WithNCBIBaseURL(base string) *VariantAnnotationClient {
	c.ncbiBaseURL = base
	return c
}

func (c *VariantAnnotationClient) Close() { c.client.Close() }

// MyvariantHit is the parsed annotation hit returned by FetchEvidence.
type MyvariantHit = myvariantHit

type myvariantHit struct {
	CosmicID     json.RawMessage `json:"cosmic.cosmic_id"`
	ClinVarID    json.RawMessage `json:"clinvar.variant_id"`
	DBSNPID      string          `json:"dbsnp.rsid"`
	EntrezGeneID json.RawMessage `json:"entrezgene"`
	Civic        json.RawMessage `json:"civic"`
	HGVS         struct {
		Genomic []string `json:"genomic"`
		Coding  []string `json:"coding"`
		Protein []string `json:"protein"`
	} `json:"hgvs"`
	SnpEff struct {
		Ann []struct {
			Effect string `json:"effect"`
		} `json:"ann"`
	} `json:"snpeff"`
	Dbnsfp struct {
		Polyphen2 struct {
			Hdiv struct {
				Pred string `json:"pred"`
			} `json:"hdiv"`
		} `json:"polyphen2"`
		Cadd struct {
			Phred float64 `json:"phred"`
		} `json:"cadd"`
		Alphamissense struct {
			Score float64 `json:"score"`
			Pred  string  `json:"pred"`
		} `json:"alphamissense"`
	} `json:"dbnsfp"`
	GnomadExome struct {
		AF struct {
			AF float64 `json:"af"`
		} `json:"af"`
	} `json:"gnomad_exome"`
}

type myvariantQueryResponse struct {
	Total int            `json:"total"`
	Hits  []myvariantHit `json:"hits"`
}

// VariantEvidenceResult bundles the raw cross-reference hit (if any) with
// the civic-evidence cascade and ClinVar fallback data, matching
// myvariant.py's fetch_evidence orchestration.
type VariantEvidenceResult struct {
	Hit                 *myvariantHit
	CivicAnnotations    []domain.VariantAnnotation
	ClinVarID           string
	ClinVarSignificance string
	ClinVarAccession    string
}

// FetchEvidence implements the three-query-form strategy of spec §4.2:
// "GENE p.VARIANT", then "GENE:VARIANT", then "GENE VARIANT", first hit wins.
// When MyVariant carries no civic evidence for the matched hit (or no hit at
// all), a direct CIViC GraphQL fallback backfills it; ClinVar is backfilled
// the same way via NCBI E-utilities, per myvariant.py's fetch_evidence.
func (c *VariantAnnotationClient) FetchEvidence(ctx context.Context, gene, variant string) (*VariantEvidenceResult, error) {
	proteinNotation := variant
	if !strings.HasPrefix(strings.ToLower(variant), "p.") {
		proteinNotation = "p." + variant
	}

	queries := []string{
		fmt.Sprintf("%s %s", gene, proteinNotation),
		fmt.Sprintf("%s:%s", gene, variant),
		fmt.Sprintf("%s %s", gene, variant),
	}

	var hit *myvariantHit
	for _, q := range queries {
		resp, err := c.query(ctx, q)
		if err != nil {
			return nil, err
		}
		if resp.Total > 0 && len(resp.Hits) > 0 {
			h := resp.Hits[0]
			hit = &h
			break
		}
	}

	result := &VariantEvidenceResult{Hit: hit}

	if hit == nil {
		result.CivicAnnotations = c.fetchCivicFallback(ctx, gene, variant)
		c.backfillClinvar(ctx, gene, variant, result)
		return result, nil
	}

	result.CivicAnnotations = parseCivicEvidence(hit.Civic)
	if len(result.CivicAnnotations) == 0 {
		result.CivicAnnotations = c.fetchCivicFallback(ctx, gene, variant)
	}

	if hit.ClinVarIDString() == "" {
		c.backfillClinvar(ctx, gene, variant, result)
	}

	return result, nil
}

func (c *VariantAnnotationClient) backfillClinvar(ctx context.Context, gene, variant string, result *VariantEvidenceResult) {
	fallback := c.fetchClinvarFallback(ctx, gene, variant)
	if fallback == nil {
		return
	}
	result.ClinVarID = fallback.VariantID
	result.ClinVarSignificance = fallback.ClinicalSignificance
	result.ClinVarAccession = fallback.Accession
}

func (c *VariantAnnotationClient) query(ctx context.Context, q string) (*myvariantQueryResponse, error) {
	if c.cache != nil {
		if cached, hit, err := c.cache.Get(ctx, "variant-annotation", q); err == nil && hit {
			var out myvariantQueryResponse
			if json.Unmarshal(cached, &out) == nil {
				return &out, nil
			}
		}
	}

	base := c.cfg.BaseURL
	if base == "" {
		base = "https://myvariant.info/v1"
	}
	resp, body, err := c.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s/query?q=%s&fields=%s", base, url.QueryEscape(q), url.QueryEscape(variantAnnotationFields))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "variant-actionability-assessor/1.0")
		return req, nil
	})
	if err != nil {
		return nil, domain.TransportError("variant-annotation", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return &myvariantQueryResponse{}, nil
	}
	var out myvariantQueryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, domain.ParseError("variant-annotation", err)
	}
	if c.cache != nil {
		_ = c.cache.Set(ctx, "variant-annotation", q, body)
	}
	return &out, nil
}

// rawIDString normalizes a json.RawMessage that may be a bare string, a bare
// number, or absent, into a plain string — myvariant.info returns ids in
// whichever shape the underlying source used.
func rawIDString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func (h *myvariantHit) CosmicIDString() string   { return rawIDString(h.CosmicID) }
func (h *myvariantHit) ClinVarIDString() string  { return rawIDString(h.ClinVarID) }
func (h *myvariantHit) NCBIGeneIDString() string { return rawIDString(h.EntrezGeneID) }
func (h *myvariantHit) DBSNPIDString() string    { return h.DBSNPID }

// CodonOf strips the alt amino acid off a missense variant, e.g. Q61K -> Q61,
// per spec §4.2's molecular-profile-name fallback derivation.
var missenseCodonPattern = regexp.MustCompile(`(?i)^([A-Z])(\d+)[A-Z]*$`)

func CodonOf(variant string) (string, bool) {
	m := missenseCodonPattern.FindStringSubmatch(variant)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]) + m[2], true
}

// --- civic evidence parsing (MyVariant's "civic" field), mirroring
// myvariant.py's _parse_civic_evidence: the hit's civic payload may be a
// single object or a list, and carries one of three shapes (new API
// molecularProfiles, old API evidence_items, or a legacy flat item). ---

type civicNewAPIEvidenceItem struct {
	EvidenceType      string `json:"evidenceType"`
	EvidenceLevel     string `json:"evidenceLevel"`
	EvidenceDirection string `json:"evidenceDirection"`
	Significance      string `json:"significance"`
	Description       string `json:"description"`
	Disease           struct {
		Name string `json:"name"`
	} `json:"disease"`
	Therapies []struct {
		Name string `json:"name"`
	} `json:"therapies"`
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Rating *int `json:"rating"`
}

type civicMolecularProfile struct {
	EvidenceItems []civicNewAPIEvidenceItem `json:"evidenceItems"`
}

type civicOldAPIEvidenceItem struct {
	EvidenceType          string `json:"evidence_type"`
	EvidenceLevel         string `json:"evidence_level"`
	EvidenceDirection     string `json:"evidence_direction"`
	ClinicalSignificance  string `json:"clinical_significance"`
	Description           string `json:"description"`
	Disease               struct {
		Name string `json:"name"`
	} `json:"disease"`
	Drugs []struct {
		Name string `json:"name"`
	} `json:"drugs"`
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Rating *int `json:"rating"`
}

type civicLegacyItem struct {
	EvidenceType          string   `json:"evidence_type"`
	EvidenceLevel         string   `json:"evidence_level"`
	EvidenceDirection     string   `json:"evidence_direction"`
	ClinicalSignificance  string   `json:"clinical_significance"`
	Disease               string   `json:"disease"`
	Drugs                 []string `json:"drugs"`
	Description           string   `json:"description"`
	Source                string   `json:"source"`
	Rating                *int     `json:"rating"`
}

func parseCivicEvidence(raw json.RawMessage) []domain.VariantAnnotation {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		items = []json.RawMessage{raw}
	}

	var out []domain.VariantAnnotation
	for _, item := range items {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(item, &probe); err != nil {
			continue
		}

		switch {
		case probe["molecularProfiles"] != nil:
			var mps []civicMolecularProfile
			if err := json.Unmarshal(probe["molecularProfiles"], &mps); err != nil {
				continue
			}
			for _, mp := range mps {
				for _, ei := range mp.EvidenceItems {
					out = append(out, domain.VariantAnnotation{
						Source:               "civic",
						EvidenceType:         ei.EvidenceType,
						EvidenceLevel:        ei.EvidenceLevel,
						EvidenceDirection:    ei.EvidenceDirection,
						ClinicalSignificance: ei.Significance,
						Disease:              ei.Disease.Name,
						Drugs:                civicTherapyNames(ei.Therapies),
						Description:          ei.Description,
						Rating:               ei.Rating,
					})
				}
			}
		case probe["evidence_items"] != nil:
			var eis []civicOldAPIEvidenceItem
			if err := json.Unmarshal(probe["evidence_items"], &eis); err != nil {
				continue
			}
			for _, ei := range eis {
				out = append(out, domain.VariantAnnotation{
					Source:               "civic",
					EvidenceType:         ei.EvidenceType,
					EvidenceLevel:        ei.EvidenceLevel,
					EvidenceDirection:    ei.EvidenceDirection,
					ClinicalSignificance: ei.ClinicalSignificance,
					Disease:              ei.Disease.Name,
					Drugs:                civicDrugNames(ei.Drugs),
					Description:          ei.Description,
					Rating:               ei.Rating,
				})
			}
		default:
			var legacy civicLegacyItem
			if err := json.Unmarshal(item, &legacy); err != nil {
				continue
			}
			out = append(out, domain.VariantAnnotation{
				Source:               "civic",
				EvidenceType:         legacy.EvidenceType,
				EvidenceLevel:        legacy.EvidenceLevel,
				EvidenceDirection:    legacy.EvidenceDirection,
				ClinicalSignificance: legacy.ClinicalSignificance,
				Disease:              legacy.Disease,
				Drugs:                legacy.Drugs,
				Description:          legacy.Description,
				Rating:               legacy.Rating,
			})
		}
	}
	return out
}

func civicTherapyNames(therapies []struct {
	Name string `json:"name"`
}) []string {
	names := make([]string, 0, len(therapies))
	for _, t := range therapies {
		names = append(names, t.Name)
	}
	return names
}

func civicDrugNames(drugs []struct {
	Name string `json:"name"`
}) []string {
	names := make([]string, 0, len(drugs))
	for _, d := range drugs {
		names = append(names, d.Name)
	}
	return names
}

// --- CIViC V2 GraphQL fallback, mirroring myvariant.py's
// _fetch_civic_fallback: used when MyVariant has no indexed hit, or the
// indexed hit carries no civic evidence. ---

const civicEvidenceGraphQLQuery = `
query($name: String!) {
  molecularProfiles(name: $name) {
    nodes {
      id
      name
      evidenceItems {
        nodes {
          id
          evidenceType
          evidenceLevel
          evidenceDirection
          significance
          description
          disease {
            name
          }
          therapies {
            id
            name
          }
          source {
            sourceType
          }
        }
      }
    }
  }
}`

type civicGraphQLResponse struct {
	Data struct {
		MolecularProfiles struct {
			Nodes []struct {
				EvidenceItems struct {
					Nodes []struct {
						EvidenceType      string `json:"evidenceType"`
						EvidenceLevel     string `json:"evidenceLevel"`
						EvidenceDirection string `json:"evidenceDirection"`
						Significance      string `json:"significance"`
						Description       string `json:"description"`
						Disease           struct {
							Name string `json:"name"`
						} `json:"disease"`
						Therapies []struct {
							Name string `json:"name"`
						} `json:"therapies"`
						Source struct {
							SourceType string `json:"sourceType"`
						} `json:"source"`
					} `json:"nodes"`
				} `json:"evidenceItems"`
			} `json:"nodes"`
		} `json:"molecularProfiles"`
	} `json:"data"`
}

var (
	civicFusionKeywords        = []string{"FUSION", "FUS", "REARRANGEMENT"}
	civicAmplificationKeywords = []string{"AMP", "AMPLIFICATION", "OVEREXPRESSION"}
)

// molecularProfileNames builds the list of CIViC molecular-profile names to
// query for a variant, per myvariant.py's _fetch_civic_fallback: a single
// fusion/amplification profile for those variant classes, else the
// specific variant, its codon-level profile (if distinct), and the
// gene-level MUTATION profile (which often carries FDA approvals).
func molecularProfileNames(gene, variant string) []string {
	gene = strings.ToUpper(gene)
	variantClean := strings.ToUpper(strings.TrimSpace(variant))

	for _, kw := range civicFusionKeywords {
		if strings.Contains(variantClean, kw) {
			return []string{gene + " FUSION"}
		}
	}
	for _, kw := range civicAmplificationKeywords {
		if strings.Contains(variantClean, kw) {
			return []string{gene + " AMPLIFICATION"}
		}
	}

	names := []string{gene + " " + variantClean}
	if codon, ok := CodonOf(variantClean); ok && codon != variantClean {
		names = append(names, gene+" "+codon)
	}
	names = append(names, gene+" MUTATION")
	return names
}

func (c *VariantAnnotationClient) fetchCivicFallback(ctx context.Context, gene, variant string) []domain.VariantAnnotation {
	var out []domain.VariantAnnotation
	for _, mpName := range molecularProfileNames(gene, variant) {
		records, err := c.civicGraphQL(ctx, mpName)
		if err != nil {
			if c.log != nil {
				c.log.WithError(err).WithField("profile", mpName).Warn("civic graphql fallback query failed")
			}
			continue
		}
		out = append(out, records...)
	}
	return out
}

func (c *VariantAnnotationClient) civicGraphQL(ctx context.Context, mpName string) ([]domain.VariantAnnotation, error) {
	reqBody, err := json.Marshal(map[string]any{
		"query":     civicEvidenceGraphQLQuery,
		"variables": map[string]string{"name": mpName},
	})
	if err != nil {
		return nil, err
	}

	_, body, err := c.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.civicBaseURL+"/graphql", bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, domain.TransportError("variant-annotation-civic", err)
	}

	var parsed civicGraphQLResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, domain.ParseError("variant-annotation-civic", err)
	}

	var out []domain.VariantAnnotation
	for _, profile := range parsed.Data.MolecularProfiles.Nodes {
		for _, ei := range profile.EvidenceItems.Nodes {
			out = append(out, domain.VariantAnnotation{
				Source:               "civic",
				EvidenceType:         ei.EvidenceType,
				EvidenceLevel:        ei.EvidenceLevel,
				EvidenceDirection:    ei.EvidenceDirection,
				ClinicalSignificance: ei.Significance,
				Disease:              ei.Disease.Name,
				Drugs:                civicTherapyNames(ei.Therapies),
				Description:          ei.Description,
				// Rating is left unset: CIViC's V2 GraphQL API doesn't
				// surface it.
			})
		}
	}
	return out, nil
}

// --- ClinVar fallback via NCBI E-utilities, mirroring myvariant.py's
// _fetch_clinvar_fallback. ---

type clinvarFallbackResult struct {
	VariantID            string
	ClinicalSignificance string
	Accession            string
}

func (c *VariantAnnotationClient) fetchClinvarFallback(ctx context.Context, gene, variant string) *clinvarFallbackResult {
	searchTerm := fmt.Sprintf("%s[gene] AND %s", gene, variant)

	_, body, err := c.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s/esearch.fcgi?db=clinvar&term=%s&retmode=json&retmax=1", c.ncbiBaseURL, url.QueryEscape(searchTerm))
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil
	}

	var searchResp struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := json.Unmarshal(body, &searchResp); err != nil || len(searchResp.ESearchResult.IDList) == 0 {
		return nil
	}
	variantID := searchResp.ESearchResult.IDList[0]

	_, body, err = c.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s/esummary.fcgi?db=clinvar&id=%s&retmode=json", c.ncbiBaseURL, url.QueryEscape(variantID))
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil
	}

	var summaryResp struct {
		Result map[string]struct {
			ClinicalSignificance struct {
				Description string `json:"description"`
			} `json:"clinical_significance"`
			Accession string `json:"accession"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &summaryResp); err != nil {
		return nil
	}

	entry, ok := summaryResp.Result[variantID]
	if !ok || (entry.ClinicalSignificance.Description == "" && entry.Accession == "") {
		return nil
	}
	return &clinvarFallbackResult{
		VariantID:            variantID,
		ClinicalSignificance: entry.ClinicalSignificance.Description,
		Accession:            entry.Accession,
	}
}
