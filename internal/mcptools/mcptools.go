// Package mcptools exposes assess_variant and validate_dataset as MCP tools
// (SPEC_FULL.md §4.15) — the teacher's own native interface, repurposed onto
// this domain's two operations. Grounded on other_examples/nishad-srake's
// modelcontextprotocol/go-sdk server/tool-registration idiom
// (gomcp.NewServer + gomcp.AddTool with a typed args struct driving
// automatic JSON-schema generation via `jsonschema` field tags).
package mcptools

import (
	"context"
	"encoding/json"
	"log"
	"os"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/variant-actionability/assessor/internal/domain"
	"github.com/variant-actionability/assessor/internal/engine"
	"github.com/variant-actionability/assessor/internal/validator"
)

// Services bundles the pipeline collaborators the tool handlers call into.
type Services struct {
	Engine    *engine.Engine
	Validator *validator.Validator
	Log       *logrus.Logger
}

// AssessVariantArgs are the arguments for the assess_variant tool.
type AssessVariantArgs struct {
	Gene      string `json:"gene" jsonschema:"HGNC gene symbol, e.g. BRAF"`
	Variant   string `json:"variant" jsonschema:"protein, coding, or genomic change, e.g. p.V600E"`
	TumorType string `json:"tumor_type,omitempty" jsonschema:"free-text or OncoTree tumor type, e.g. melanoma"`
}

// ValidateDatasetArgs are the arguments for the validate_dataset tool.
type ValidateDatasetArgs struct {
	GoldStandard  []domain.GoldStandardEntry `json:"gold_standard" jsonschema:"gold-standard entries to validate against"`
	MaxConcurrent int                        `json:"max_concurrent,omitempty" jsonschema:"bounded concurrency cap, default 3"`
}

// NewServer builds the MCP server with both tools registered.
func NewServer(version string, svc *Services) *gomcp.Server {
	server := gomcp.NewServer(
		&gomcp.Implementation{Name: "variant-actionability-assessor", Version: version},
		nil,
	)
	registerTools(server, svc)
	return server
}

// Run serves the MCP server on stdio, the default transport for an
// assistant-invoked tool server.
func Run(ctx context.Context, version string, svc *Services) error {
	log.SetOutput(os.Stderr)
	server := NewServer(version, svc)
	return server.Run(ctx, &gomcp.StdioTransport{})
}

func registerTools(server *gomcp.Server, svc *Services) {
	gomcp.AddTool(server, &gomcp.Tool{
		Name:        "assess_variant",
		Description: "Assess a single gene/variant (optionally scoped to a tumor type) and return its AMP/ASCO/CAP tier, confidence, and supporting rationale.",
	}, func(ctx context.Context, req *gomcp.CallToolRequest, args AssessVariantArgs) (*gomcp.CallToolResult, any, error) {
		if args.Gene == "" || args.Variant == "" {
			return errResult("gene and variant are required"), nil, nil
		}

		input := domain.VariantInput{Gene: args.Gene, Variant: args.Variant, TumorType: args.TumorType}
		assessment, err := svc.Engine.AssessVariant(ctx, input)
		if err != nil {
			return errResult(err.Error()), nil, nil
		}

		return &gomcp.CallToolResult{
			Content: []gomcp.Content{&gomcp.TextContent{Text: toJSON(assessment)}},
		}, nil, nil
	})

	gomcp.AddTool(server, &gomcp.Tool{
		Name:        "validate_dataset",
		Description: "Run the assessment engine against a gold-standard set of (gene, variant, tumor_type, expected_tier) entries and return per-tier precision/recall/F1 plus overall accuracy.",
	}, func(ctx context.Context, req *gomcp.CallToolRequest, args ValidateDatasetArgs) (*gomcp.CallToolResult, any, error) {
		if len(args.GoldStandard) == 0 {
			return errResult("gold_standard must contain at least one entry"), nil, nil
		}

		metrics := svc.Validator.ValidateDataset(ctx, args.GoldStandard, args.MaxConcurrent)
		return &gomcp.CallToolResult{
			Content: []gomcp.Content{&gomcp.TextContent{Text: toJSON(metrics)}},
		}, nil, nil
	})
}

func toJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return `{"error":"` + err.Error() + `"}`
	}
	return string(b)
}

func errResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
