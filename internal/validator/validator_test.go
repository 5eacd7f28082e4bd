package validator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/variant-actionability/assessor/internal/aggregator"
	"github.com/variant-actionability/assessor/internal/domain"
	"github.com/variant-actionability/assessor/internal/engine"
	"github.com/variant-actionability/assessor/internal/llm"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

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

func newTestEngine(t *testing.T, content string) *engine.Engine {
	t.Helper()
	chatServer := newFakeChatServer(t, content)
	t.Cleanup(chatServer.Close)

	agg := aggregator.New(aggregator.Clients{}, newTestLogger())
	adjudicator := llm.New(domain.LLMConfig{BaseURL: chatServer.URL, Model: "gpt-4o-mini"}, newTestLogger())
	return engine.New(agg, adjudicator, newTestLogger())
}

func TestValidateSingle_CorrectPrediction(t *testing.T) {
	eng := newTestEngine(t, `{"tier":"Tier I","confidence_score":0.9,"summary":"s","rationale":"r","evidence_strength":"Strong","recommended_therapies":[],"clinical_trials_available":false,"references":[]}`)
	v := New(eng, newTestLogger())

	entry := domain.GoldStandardEntry{Gene: "BRAF", Variant: "V600E", TumorType: "melanoma", ExpectedTier: domain.TierI}
	result, err := v.ValidateSingle(t.Context(), entry)
	require.NoError(t, err)
	require.Equal(t, domain.TierI, result.PredictedTier)
	require.True(t, result.IsCorrect)
}

func TestValidateSingle_IncorrectPrediction(t *testing.T) {
	eng := newTestEngine(t, `{"tier":"Tier III","confidence_score":0.4,"summary":"s","rationale":"r","evidence_strength":"Weak","recommended_therapies":[],"clinical_trials_available":false,"references":[]}`)
	v := New(eng, newTestLogger())

	entry := domain.GoldStandardEntry{Gene: "KRAS", Variant: "G12D", ExpectedTier: domain.TierI}
	result, err := v.ValidateSingle(t.Context(), entry)
	require.NoError(t, err)
	require.Equal(t, domain.TierIII, result.PredictedTier)
	require.False(t, result.IsCorrect)
}

func TestValidateDataset_AggregatesMetrics(t *testing.T) {
	eng := newTestEngine(t, `{"tier":"Tier II","confidence_score":0.7,"summary":"s","rationale":"r","evidence_strength":"Moderate","recommended_therapies":[],"clinical_trials_available":false,"references":[]}`)
	v := New(eng, newTestLogger())

	goldStandard := []domain.GoldStandardEntry{
		{Gene: "BRAF", Variant: "V600E", ExpectedTier: domain.TierII},
		{Gene: "KRAS", Variant: "G12D", ExpectedTier: domain.TierIII},
		{Gene: "EGFR", Variant: "L858R", ExpectedTier: domain.TierII},
	}

	metrics := v.ValidateDataset(t.Context(), goldStandard, 2)
	require.Equal(t, 3, metrics.TotalCases)
	require.Equal(t, 2, metrics.CorrectPredictions)
	require.InDelta(t, 2.0/3.0, metrics.Accuracy, 0.0001)
}

func TestValidateDataset_DefaultsConcurrencyWhenNonPositive(t *testing.T) {
	eng := newTestEngine(t, `{"tier":"Tier I","confidence_score":0.9,"summary":"s","rationale":"r","evidence_strength":"Strong","recommended_therapies":[],"clinical_trials_available":false,"references":[]}`)
	v := New(eng, newTestLogger())

	goldStandard := []domain.GoldStandardEntry{{Gene: "BRAF", Variant: "V600E", ExpectedTier: domain.TierI}}
	metrics := v.ValidateDataset(t.Context(), goldStandard, 0)
	require.Equal(t, 1, metrics.TotalCases)
	require.Equal(t, 1, metrics.CorrectPredictions)
}

func TestValidateDataset_EmptyDataset(t *testing.T) {
	eng := newTestEngine(t, `{"tier":"Tier I","confidence_score":0.9,"summary":"s","rationale":"r","evidence_strength":"Strong","recommended_therapies":[],"clinical_trials_available":false,"references":[]}`)
	v := New(eng, newTestLogger())

	metrics := v.ValidateDataset(t.Context(), nil, 3)
	require.Equal(t, 0, metrics.TotalCases)
	require.Equal(t, 0.0, metrics.Accuracy)
}
