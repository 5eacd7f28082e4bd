package aggregator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/variant-actionability/assessor/internal/domain"
	"github.com/variant-actionability/assessor/internal/kb"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

func TestAggregate_PartialEvidenceWhenOnlySomeClientsConfigured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/graphql"):
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
		case strings.Contains(r.URL.Path, "esearch"):
			_ = json.NewEncoder(w).Encode(map[string]any{"esearchresult": map[string]any{"idlist": []string{}}})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"total": 1,
				"hits":  []map[string]any{{"dbsnp.rsid": "rs121913227"}},
			})
		}
	}))
	defer server.Close()

	cfg := domain.KBClientConfig{BaseURL: server.URL, RetryCount: 0}
	clients := Clients{VariantAnnotation: kb.NewVariantAnnotationClient(cfg, newTestLogger()).
		WithCivicBaseURL(server.URL).WithNCBIBaseURL(server.URL)}

	agg := New(clients, newTestLogger())
	evidence := agg.Aggregate(t.Context(), "BRAF", "V600E", "melanoma")

	require.Equal(t, "BRAF", evidence.Gene)
	require.Equal(t, "rs121913227", evidence.DBSNPID)
	require.NotNil(t, evidence.DrugLabelRecords)
	require.Empty(t, evidence.DrugLabelRecords)
	require.NotNil(t, evidence.HarmonizedAssertions)
}

func TestAggregate_DegradesOnSourceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := domain.KBClientConfig{BaseURL: server.URL, RetryCount: 0}
	clients := Clients{VariantAnnotation: kb.NewVariantAnnotationClient(cfg, newTestLogger())}

	agg := New(clients, newTestLogger())
	evidence := agg.Aggregate(t.Context(), "KRAS", "G12D", "")

	require.Equal(t, "KRAS", evidence.Gene)
	require.Empty(t, evidence.DBSNPID)
}

func TestResolveTumorType_NoClientPassesThrough(t *testing.T) {
	agg := New(Clients{}, newTestLogger())
	code, name, err := agg.ResolveTumorType(t.Context(), "melanoma")
	require.NoError(t, err)
	require.Equal(t, "melanoma", code)
	require.Equal(t, "melanoma", name)
}
