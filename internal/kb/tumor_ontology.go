// Tumor-ontology client — grounded on original_source/.../api/oncotree.py.
package kb

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/variant-actionability/assessor/internal/cache"
	"github.com/variant-actionability/assessor/internal/domain"
)

type TumorOntologyClient struct {
	client *ResilientClient
	cfg    domain.KBClientConfig
	memo   *cache.OntologyMemo
}

func NewTumorOntologyClient(cfg domain.KBClientConfig, memo *cache.OntologyMemo, log *logrus.Logger) *TumorOntologyClient {
	return &TumorOntologyClient{client: NewResilientClient("tumor-ontology", cfg, log), cfg: cfg, memo: memo}
}

func (c *TumorOntologyClient) Close() { c.client.Close() }

type ontologyNode struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	MainType string `json:"mainType"`
}

const ontologyMemoKey = "catalogue"

// catalogue fetches and memoizes the full ontology node list, mirroring
// oncotree.py's self._cache dict semantics: fetched once, reused forever
// in-process.
func (c *TumorOntologyClient) catalogue(ctx context.Context) ([]ontologyNode, error) {
	if c.memo != nil {
		if cached, ok := c.memo.Get(ontologyMemoKey); ok {
			if nodes, ok := cached.([]ontologyNode); ok {
				return nodes, nil
			}
		}
	}

	base := c.cfg.BaseURL
	if base == "" {
		base = "https://oncotree.mskcc.org/api"
	}
	resp, body, err := c.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, base+"/tumorTypes", nil)
	})
	if err != nil {
		return nil, domain.TransportError("tumor-ontology", err)
	}
	if resp.StatusCode == http.StatusNotFound || len(body) == 0 {
		return nil, nil
	}

	var nodes []ontologyNode
	if err := json.Unmarshal(body, &nodes); err != nil {
		return nil, domain.ParseError("tumor-ontology", err)
	}

	if c.memo != nil {
		c.memo.Set(ontologyMemoKey, nodes)
	}
	return nodes, nil
}

// ResolveTumorType implements spec §4.6's three accepted input shapes:
// an exact ontology code ("LUAD"), a "CODE - Name" pair, or a free-form
// tumor-type name matched case-insensitively against the catalogue.
func (c *TumorOntologyClient) ResolveTumorType(ctx context.Context, input string) (string, string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", "", nil
	}

	if idx := strings.Index(trimmed, " - "); idx >= 0 {
		trimmed = strings.TrimSpace(trimmed[:idx])
	}

	nodes, err := c.catalogue(ctx)
	if err != nil {
		return "", "", err
	}

	upper := strings.ToUpper(trimmed)
	for _, n := range nodes {
		if strings.EqualFold(n.Code, upper) {
			return n.Code, n.Name, nil
		}
	}
	for _, n := range nodes {
		if strings.EqualFold(n.Name, trimmed) {
			return n.Code, n.Name, nil
		}
	}
	for _, n := range nodes {
		if TumorMatches(trimmed, n.Name) {
			return n.Code, n.Name, nil
		}
	}

	return trimmed, trimmed, nil
}
