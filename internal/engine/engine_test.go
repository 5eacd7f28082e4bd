package engine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/variant-actionability/assessor/internal/aggregator"
	"github.com/variant-actionability/assessor/internal/domain"
	"github.com/variant-actionability/assessor/internal/kb"
	"github.com/variant-actionability/assessor/internal/llm"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

// newFakeChatServer returns an httptest server that answers OpenAI
// chat-completion requests with a fixed assessment payload, mirroring
// service.py's mocked LLM fixture pattern.
func newFakeChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestEngine_AssessVariant_EndToEnd(t *testing.T) {
	kbServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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
	defer kbServer.Close()

	chatServer := newFakeChatServer(t, `{"tier":"Tier I","confidence_score":0.9,"summary":"FDA-approved targeted therapy available","rationale":"Strong evidence.","evidence_strength":"Strong","recommended_therapies":[],"clinical_trials_available":false,"references":[]}`)
	defer chatServer.Close()

	clients := aggregator.Clients{
		VariantAnnotation: kb.NewVariantAnnotationClient(domain.KBClientConfig{BaseURL: kbServer.URL, RetryCount: 0}, newTestLogger()).
			WithCivicBaseURL(kbServer.URL).WithNCBIBaseURL(kbServer.URL),
	}
	agg := aggregator.New(clients, newTestLogger())
	adjudicator := llm.New(domain.LLMConfig{BaseURL: chatServer.URL, Model: "gpt-4o-mini"}, newTestLogger())

	eng := New(agg, adjudicator, newTestLogger())

	assessment, err := eng.AssessVariant(t.Context(), domain.VariantInput{Gene: "BRAF", Variant: "V600E", TumorType: "melanoma"})
	require.NoError(t, err)
	require.Equal(t, domain.TierI, assessment.Tier)
	require.Equal(t, "rs121913227", assessment.DBSNPID)
}

func TestEngine_AssessVariant_UnsupportedVariantType(t *testing.T) {
	clients := aggregator.Clients{}
	agg := aggregator.New(clients, newTestLogger())
	adjudicator := llm.New(domain.LLMConfig{}, newTestLogger())
	eng := New(agg, adjudicator, newTestLogger())

	_, err := eng.AssessVariant(t.Context(), domain.VariantInput{Gene: "BRAF", Variant: "chr7:g.140453136A>T (complex structural)"})
	require.Error(t, err)
}

func TestEngine_BatchAssess(t *testing.T) {
	chatServer := newFakeChatServer(t, `{"tier":"Tier III","confidence_score":0.5,"summary":"no actionable evidence","rationale":"limited data","evidence_strength":"Weak","recommended_therapies":[],"clinical_trials_available":false,"references":[]}`)
	defer chatServer.Close()

	kbServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/graphql"):
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
		case strings.Contains(r.URL.Path, "esearch"):
			_ = json.NewEncoder(w).Encode(map[string]any{"esearchresult": map[string]any{"idlist": []string{}}})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"total": 0})
		}
	}))
	defer kbServer.Close()

	clients := aggregator.Clients{
		VariantAnnotation: kb.NewVariantAnnotationClient(domain.KBClientConfig{BaseURL: kbServer.URL, RetryCount: 0}, newTestLogger()).
			WithCivicBaseURL(kbServer.URL).WithNCBIBaseURL(kbServer.URL),
	}
	agg := aggregator.New(clients, newTestLogger())
	adjudicator := llm.New(domain.LLMConfig{BaseURL: chatServer.URL, Model: "gpt-4o-mini"}, newTestLogger())
	eng := New(agg, adjudicator, newTestLogger())

	inputs := []domain.VariantInput{
		{Gene: "KRAS", Variant: "G12D"},
		{Gene: "EGFR", Variant: "L858R"},
	}
	results := eng.BatchAssess(t.Context(), inputs)
	require.Len(t, results, 2)
}
