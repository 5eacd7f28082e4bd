// Curated-assertion (molecular-profile, AMP-tier) client — grounded on
// original_source/.../api/civic.py.
package kb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/variant-actionability/assessor/internal/domain"
)

type CuratedAssertionClient struct {
	client *ResilientClient
	cfg    domain.KBClientConfig
}

func NewCuratedAssertionClient(cfg domain.KBClientConfig, log *logrus.Logger) *CuratedAssertionClient {
	return &CuratedAssertionClient{client: NewResilientClient("curated-assertion", cfg, log), cfg: cfg}
}

func (c *CuratedAssertionClient) Close() { c.client.Close() }

const assertionsGraphQLQuery = `
query MolecularProfileAssertions($name: String!) {
  molecularProfiles(name: $name, first: 5) {
    edges {
      node {
        assertions(first: 25) {
          edges {
            node {
              id
              name
              ampLevel
              assertionType
              assertionDirection
              significance
              status
              molecularProfile { name }
              disease { name }
              therapies { name }
              fdaCompanionTest
              nccnGuideline
              description
            }
          }
        }
      }
    }
  }
}`

type civicGraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type civicAssertionNode struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	AMPLevel           string `json:"ampLevel"`
	AssertionType      string `json:"assertionType"`
	AssertionDirection string `json:"assertionDirection"`
	Significance       string `json:"significance"`
	Status             string `json:"status"`
	MolecularProfile   struct {
		Name string `json:"name"`
	} `json:"molecularProfile"`
	Disease struct {
		Name string `json:"name"`
	} `json:"disease"`
	Therapies []struct {
		Name string `json:"name"`
	} `json:"therapies"`
	FDACompanionTest bool   `json:"fdaCompanionTest"`
	NCCNGuideline    string `json:"nccnGuideline"`
	Description      string `json:"description"`
}

type civicGraphQLResponse struct {
	Data struct {
		MolecularProfiles struct {
			Edges []struct {
				Node struct {
					Assertions struct {
						Edges []struct {
							Node civicAssertionNode `json:"node"`
						} `json:"edges"`
					} `json:"assertions"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"molecularProfiles"`
	} `json:"data"`
}

// FetchAssertions queries the curated-assertion GraphQL endpoint for the
// molecular profile named "GENE VARIANT" (e.g. "BRAF V600E"), per spec §4.2's
// molecular-profile-name derivation (falling back to "GENE CODON", e.g.
// "BRAF V600", via kb.CodonOf when the full variant form yields no profile).
func (c *CuratedAssertionClient) FetchAssertions(ctx context.Context, gene, variant string) ([]domain.PredictiveAssertion, error) {
	names := []string{fmt.Sprintf("%s %s", strings.ToUpper(gene), variant)}
	if codon, ok := CodonOf(variant); ok {
		names = append(names, fmt.Sprintf("%s %s", strings.ToUpper(gene), codon))
	}

	for _, name := range names {
		nodes, err := c.query(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(nodes) > 0 {
			return toPredictiveAssertions(nodes), nil
		}
	}
	return nil, nil
}

func (c *CuratedAssertionClient) query(ctx context.Context, molecularProfileName string) ([]civicAssertionNode, error) {
	base := c.cfg.BaseURL
	if base == "" {
		base = "https://civicdb.org/api/graphql"
	}
	reqBody := civicGraphQLRequest{
		Query:     assertionsGraphQLQuery,
		Variables: map[string]any{"name": molecularProfileName},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	resp, body, err := c.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, base, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, domain.TransportError("curated-assertion", err)
	}
	if resp.StatusCode == http.StatusNotFound || len(body) == 0 {
		return nil, nil
	}

	var parsed civicGraphQLResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, domain.ParseError("curated-assertion", err)
	}

	var nodes []civicAssertionNode
	for _, mpEdge := range parsed.Data.MolecularProfiles.Edges {
		for _, aEdge := range mpEdge.Node.Assertions.Edges {
			nodes = append(nodes, aEdge.Node)
		}
	}
	return nodes, nil
}

func toPredictiveAssertions(nodes []civicAssertionNode) []domain.PredictiveAssertion {
	out := make([]domain.PredictiveAssertion, 0, len(nodes))
	for _, n := range nodes {
		therapies := make([]string, 0, len(n.Therapies))
		for _, t := range n.Therapies {
			therapies = append(therapies, t.Name)
		}
		out = append(out, domain.PredictiveAssertion{
			AssertionID:        n.ID,
			Name:               n.Name,
			AMPLevel:           n.AMPLevel,
			AssertionType:      n.AssertionType,
			AssertionDirection: n.AssertionDirection,
			Significance:       n.Significance,
			Status:             n.Status,
			MolecularProfile:   n.MolecularProfile.Name,
			Disease:            n.Disease.Name,
			Therapies:          therapies,
			FDACompanionTest:   n.FDACompanionTest,
			NCCNGuideline:      n.NCCNGuideline,
			Description:        n.Description,
		})
	}
	return out
}
