package kb

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/variant-actionability/assessor/internal/domain"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

// emptyFallbackServer answers the CIViC GraphQL and NCBI E-utilities
// fallbacks with empty-but-valid responses, so tests that trigger them
// (because the myvariant hit carries no civic/clinvar data) don't reach
// the real civicdb.org/eutils.ncbi.nlm.nih.gov hosts.
func emptyFallbackServer(t *testing.T, myvariant func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/graphql"):
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
		case strings.Contains(r.URL.Path, "esearch"):
			_ = json.NewEncoder(w).Encode(map[string]any{"esearchresult": map[string]any{"idlist": []string{}}})
		default:
			myvariant(w, r)
		}
	}))
}

func TestVariantAnnotationClient_FetchEvidence_FirstQueryHits(t *testing.T) {
	calls := 0
	server := emptyFallbackServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		resp := myvariantQueryResponse{Total: 1, Hits: []myvariantHit{{DBSNPID: "rs121913227"}}}
		_ = json.NewEncoder(w).Encode(resp)
	})
	defer server.Close()

	cfg := domain.KBClientConfig{BaseURL: server.URL}
	client := NewVariantAnnotationClient(cfg, newTestLogger()).
		WithCivicBaseURL(server.URL).WithNCBIBaseURL(server.URL)

	result, err := client.FetchEvidence(t.Context(), "BRAF", "V600E")
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotNil(t, result.Hit)
	require.Equal(t, "rs121913227", result.Hit.DBSNPIDString())
	require.Equal(t, 1, calls)
}

func TestVariantAnnotationClient_FetchEvidence_NoHits(t *testing.T) {
	server := emptyFallbackServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(myvariantQueryResponse{Total: 0})
	})
	defer server.Close()

	cfg := domain.KBClientConfig{BaseURL: server.URL}
	client := NewVariantAnnotationClient(cfg, newTestLogger()).
		WithCivicBaseURL(server.URL).WithNCBIBaseURL(server.URL)

	result, err := client.FetchEvidence(t.Context(), "KRAS", "G12D")
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Nil(t, result.Hit)
	require.Empty(t, result.CivicAnnotations)
}

func TestVariantAnnotationClient_FetchEvidence_CivicFallbackBackfillsEmptyHit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/graphql"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"molecularProfiles": map[string]any{
						"nodes": []map[string]any{{
							"evidenceItems": map[string]any{
								"nodes": []map[string]any{{
									"evidenceType":  "PREDICTIVE",
									"evidenceLevel": "A",
									"significance":  "SENSITIVITY/RESPONSE",
									"description":   "BRAF V600E sensitivity to vemurafenib",
									"disease":       map[string]any{"name": "melanoma"},
									"therapies":     []map[string]any{{"name": "vemurafenib"}},
								}},
							},
						}},
					},
				},
			})
		case strings.Contains(r.URL.Path, "esearch"):
			_ = json.NewEncoder(w).Encode(map[string]any{"esearchresult": map[string]any{"idlist": []string{}}})
		default:
			_ = json.NewEncoder(w).Encode(myvariantQueryResponse{Total: 0})
		}
	}))
	defer server.Close()

	cfg := domain.KBClientConfig{BaseURL: server.URL}
	client := NewVariantAnnotationClient(cfg, newTestLogger()).
		WithCivicBaseURL(server.URL).WithNCBIBaseURL(server.URL)

	result, err := client.FetchEvidence(t.Context(), "BRAF", "V600E")
	require.NoError(t, err)
	require.Nil(t, result.Hit)
	require.NotEmpty(t, result.CivicAnnotations)
	annotation := result.CivicAnnotations[0]
	require.Equal(t, "vemurafenib", annotation.Drugs[0])
	require.True(t, annotation.IsSensitivity())
}

func TestVariantAnnotationClient_WithoutCache_EveryQueryHitsServer(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		resp := myvariantQueryResponse{Total: 1, Hits: []myvariantHit{{DBSNPID: "rs1"}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	cfg := domain.KBClientConfig{BaseURL: server.URL}
	client := NewVariantAnnotationClient(cfg, newTestLogger())

	_, err := client.query(t.Context(), "BRAF p.V600E")
	require.NoError(t, err)
	_, err = client.query(t.Context(), "BRAF p.V600E")
	require.NoError(t, err)
	require.Equal(t, 2, calls, "without a cache attached, every query call should hit the server")
}

func TestParseCivicEvidence_LegacyFlatFormat(t *testing.T) {
	raw := json.RawMessage(`{"evidence_type":"PREDICTIVE","evidence_level":"A","clinical_significance":"SENSITIVITY/RESPONSE","disease":"melanoma","drugs":["vemurafenib"],"description":"desc"}`)
	out := parseCivicEvidence(raw)
	require.Len(t, out, 1)
	require.Equal(t, "melanoma", out[0].Disease)
	require.Equal(t, []string{"vemurafenib"}, out[0].Drugs)
	require.True(t, out[0].IsSensitivity())
}

func TestParseCivicEvidence_OldAPIEvidenceItems(t *testing.T) {
	raw := json.RawMessage(`{"evidence_items":[{"evidence_type":"PREDICTIVE","evidence_level":"B","clinical_significance":"RESISTANCE","disease":{"name":"CRC"},"drugs":[{"name":"cetuximab"}],"description":"resistance"}]}`)
	out := parseCivicEvidence(raw)
	require.Len(t, out, 1)
	require.Equal(t, "CRC", out[0].Disease)
	require.Equal(t, []string{"cetuximab"}, out[0].Drugs)
	require.True(t, out[0].IsResistance())
}

func TestParseCivicEvidence_NewAPIMolecularProfiles(t *testing.T) {
	raw := json.RawMessage(`{"molecularProfiles":[{"evidenceItems":[{"evidenceType":"PREDICTIVE","evidenceLevel":"A","significance":"SENSITIVITY/RESPONSE","disease":{"name":"NSCLC"},"therapies":[{"name":"osimertinib"}],"description":"d"}]}]}`)
	out := parseCivicEvidence(raw)
	require.Len(t, out, 1)
	require.Equal(t, "NSCLC", out[0].Disease)
	require.Equal(t, []string{"osimertinib"}, out[0].Drugs)
}

func TestMolecularProfileNames(t *testing.T) {
	require.Equal(t, []string{"ERBB2 FUSION"}, molecularProfileNames("erbb2", "fusion"))
	require.Equal(t, []string{"ALK AMPLIFICATION"}, molecularProfileNames("alk", "amplification"))

	names := molecularProfileNames("NRAS", "Q61K")
	require.Equal(t, []string{"NRAS Q61K", "NRAS Q61", "NRAS MUTATION"}, names)
}

func TestCodonOf(t *testing.T) {
	codon, ok := CodonOf("Q61K")
	require.True(t, ok)
	require.Equal(t, "Q61", codon)

	_, ok = CodonOf("not-a-variant")
	require.False(t, ok)
}
