// Curated-biomarker client — grounded on original_source/.../api/cgi.py.
// Unlike the other five clients this one is not a live HTTP query per
// variant: the whole catalogue is fetched once into a TSV disk cache
// (internal/cache.BiomarkerDiskCache) and every lookup filters the parsed
// rows in-process with the alteration-pattern DSL (altpattern.go) and the
// tumor-type synonym map (tumor_synonym.go).
package kb

import (
	"context"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/variant-actionability/assessor/internal/cache"
	"github.com/variant-actionability/assessor/internal/domain"
)

// curatedBiomarkerColumns names the TSV columns this client reads, mirroring
// cgi.py's CGIBiomarker field extraction from the catalogue row dict.
const (
	colGene           = "Gene"
	colAlteration     = "Alteration"
	colDrug           = "Drug"
	colDrugStatus     = "Drug status"
	colAssociation    = "Association"
	colEvidenceLevel  = "Evidence level"
	colTumorType      = "Tumor type"
	colTumorTypeFull  = "Tumor type full name"
	colSource         = "Source"
)

type CuratedBiomarkerClient struct {
	disk *cache.BiomarkerDiskCache
	log  *logrus.Logger
}

func NewCuratedBiomarkerClient(disk *cache.BiomarkerDiskCache, log *logrus.Logger) *CuratedBiomarkerClient {
	return &CuratedBiomarkerClient{disk: disk, log: log}
}

// FetchBiomarkers returns every catalogue row whose gene and alteration
// pattern match (gene, variant), regardless of tumor type — callers apply
// the tumor-type predicate themselves (spec §4.5.1 keeps that concern out
// of the client, consistent with every other KB client in this package).
func (c *CuratedBiomarkerClient) FetchBiomarkers(ctx context.Context, gene, variant string) ([]domain.CuratedBiomarker, error) {
	rows, err := c.disk.Rows(ctx)
	if err != nil {
		return nil, err
	}

	geneUpper := strings.ToUpper(strings.TrimSpace(gene))
	var out []domain.CuratedBiomarker
	for _, row := range rows {
		rowGene := strings.ToUpper(strings.TrimSpace(row[colGene]))
		if rowGene != geneUpper {
			continue
		}
		alteration := row[colAlteration]
		if !MatchesAlterationPattern(alteration, rowGene, variant) {
			continue
		}
		out = append(out, parseBiomarkerRow(row))
	}
	return out, nil
}

// FetchFDAApproved filters FetchBiomarkers' result down to rows CGI marks
// as FDA-approved drug status, per cgi.py's is_fda_approved() helper.
func (c *CuratedBiomarkerClient) FetchFDAApproved(ctx context.Context, gene, variant string) ([]domain.CuratedBiomarker, error) {
	biomarkers, err := c.FetchBiomarkers(ctx, gene, variant)
	if err != nil {
		return nil, err
	}
	var out []domain.CuratedBiomarker
	for _, b := range biomarkers {
		if b.IsFDAApproved() {
			out = append(out, b)
		}
	}
	return out, nil
}

func parseBiomarkerRow(row map[string]string) domain.CuratedBiomarker {
	assoc := domain.AssocUnknown
	switch strings.ToLower(strings.TrimSpace(row[colAssociation])) {
	case "responsive", "sensitivity":
		assoc = AssocFromStatus(row[colAssociation])
	case "resistant":
		assoc = domain.AssocResistant
	}

	status := strings.ToLower(strings.TrimSpace(row[colDrugStatus]))
	fdaApproved := strings.Contains(status, "fda") && strings.Contains(status, "approved")

	return domain.CuratedBiomarker{
		Gene:              strings.ToUpper(strings.TrimSpace(row[colGene])),
		AlterationPattern: row[colAlteration],
		Drug:              row[colDrug],
		DrugStatus:        row[colDrugStatus],
		Association:       assoc,
		EvidenceLevel:      row[colEvidenceLevel],
		TumorType:          row[colTumorType],
		TumorTypeFull:      row[colTumorTypeFull],
		Source:             row[colSource],
		FDAApproved:        fdaApproved,
	}
}

// AssocFromStatus normalizes CGI's free-text association column into the
// shared Association enum used across all KB clients.
func AssocFromStatus(raw string) domain.Association {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "responsive":
		return domain.AssocResponsive
	case "resistant":
		return domain.AssocResistant
	case "sensitivity":
		return domain.AssocSensitivity
	default:
		return domain.AssocUnknown
	}
}

// sampleCountOf parses cgi.py's optional numeric "Number" column; returns 0
// when absent or unparsable.
func sampleCountOf(row map[string]string) int {
	n, err := strconv.Atoi(strings.TrimSpace(row["Number"]))
	if err != nil {
		return 0
	}
	return n
}
