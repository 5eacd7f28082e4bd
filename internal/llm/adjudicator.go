// Package llm implements the LLMAdjudicator (spec §4.7): a single
// assess() operation that turns an evidence summary into a final
// Assessment via an external chat-completion endpoint. Grounded on
// original_source/.../llm/service.py and .../llm/prompts.py; the
// chat-completion transport itself is grounded on the go-openai client
// used by hyperifyio-goresearch's internal/app.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/variant-actionability/assessor/internal/domain"
	"github.com/variant-actionability/assessor/internal/prompt"
)

// jsonModePrefixes names the OpenAI model families that support the
// response_format JSON-mode flag (service.py's openai_json_models list).
var jsonModePrefixes = []string{"gpt-4o-mini", "gpt-4-turbo", "gpt-3.5-turbo"}

// Adjudicator calls an external chat-completion endpoint to produce the
// final tier assessment from a pre-built evidence summary.
type Adjudicator struct {
	client *openai.Client
	cfg    domain.LLMConfig
	log    *logrus.Logger
}

// New builds an Adjudicator against cfg.BaseURL/APIKey (OpenAI-compatible).
func New(cfg domain.LLMConfig, log *logrus.Logger) *Adjudicator {
	transportCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		transportCfg.BaseURL = cfg.BaseURL
	}
	return &Adjudicator{
		client: openai.NewClientWithConfig(transportCfg),
		cfg:    cfg,
		log:    log,
	}
}

// Assess implements spec §4.7: builds the two-message dialog, calls the
// chat-completion endpoint, strips markdown fencing, parses the JSON reply
// and merges it with every identifier carried over from ev.
func (a *Adjudicator) Assess(ctx context.Context, gene, variant, tumorType string, ev *domain.Evidence, evidenceSummary string) (*domain.Assessment, error) {
	messages := prompt.BuildMessages(gene, variant, tumorType, evidenceSummary)

	req := openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		Messages:    toOpenAIMessages(messages),
		Temperature: float32(a.cfg.Temperature),
		MaxTokens:   a.cfg.MaxTokens,
	}
	if a.cfg.MaxTokens == 0 {
		req.MaxTokens = 2000
	}
	if supportsJSONMode(a.cfg.Model) {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, domain.AdjudicationError(fmt.Sprintf("chat completion call failed for %s %s", gene, variant), "", err)
	}
	if len(resp.Choices) == 0 {
		return nil, domain.AdjudicationError(fmt.Sprintf("no choices returned for %s %s", gene, variant), "", nil)
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	content := stripMarkdownFence(raw)

	var payload assessmentPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, domain.AdjudicationError(fmt.Sprintf("could not parse reply for %s %s", gene, variant), raw, err)
	}
	if payload.Tier == "" || payload.ConfidenceScore == nil || payload.Summary == "" || payload.Rationale == "" {
		return nil, domain.AdjudicationError(fmt.Sprintf("reply for %s %s is missing a required field (tier, confidence_score, summary, rationale)", gene, variant), raw, nil)
	}

	assessment := payload.toAssessment(gene, variant, tumorType)
	assessment.FromEvidence(ev)

	if a.log != nil {
		a.log.WithFields(logrus.Fields{
			"gene":      gene,
			"variant":   variant,
			"tumorType": tumorType,
			"tier":      assessment.Tier,
		}).Info("llm adjudication complete")
	}

	return assessment, nil
}

func supportsJSONMode(model string) bool {
	lower := strings.ToLower(model)
	for _, prefix := range jsonModePrefixes {
		if strings.Contains(lower, prefix) {
			return true
		}
	}
	return false
}

// stripMarkdownFence mirrors service.py's "```json ... ```" handling.
func stripMarkdownFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	parts := strings.Split(content, "```")
	inner := content
	if len(parts) > 1 {
		inner = parts[1]
	} else {
		inner = parts[0]
	}
	if strings.HasPrefix(strings.ToLower(inner), "json") {
		inner = strings.TrimLeft(inner[4:], " \t\r\n")
	}
	return strings.TrimSpace(inner)
}

func toOpenAIMessages(messages []prompt.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
