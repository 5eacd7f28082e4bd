// Package aggregator fans a normalized variant out to all six knowledge-base
// clients concurrently and joins their results into one Evidence bundle,
// degrading rather than aborting when an individual source errors. Grounded
// on original_source/.../engine.py's asyncio.gather(..., return_exceptions=True)
// step and, for the goroutine/WaitGroup/mutex shape, on
// internal/service/transcript_resolver.go's BatchResolve.
package aggregator

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/variant-actionability/assessor/internal/domain"
	"github.com/variant-actionability/assessor/internal/kb"
)

// Clients bundles the six KB clients the Aggregator fans a lookup out to.
type Clients struct {
	VariantAnnotation *kb.VariantAnnotationClient
	DrugLabel         *kb.DrugLabelClient
	CuratedBiomarker  *kb.CuratedBiomarkerClient
	HarmonizedKB      *kb.HarmonizedKBClient
	CuratedAssertion  *kb.CuratedAssertionClient
	TumorOntology     *kb.TumorOntologyClient
}

type Aggregator struct {
	clients Clients
	log     *logrus.Logger
}

func New(clients Clients, log *logrus.Logger) *Aggregator {
	return &Aggregator{clients: clients, log: log}
}

// Aggregate queries every KB source for (gene, variant) concurrently and
// merges the results into one Evidence bundle. A failing source is logged
// and left empty in the bundle rather than failing the whole assessment
// (spec §3 "every source list may be empty"; §4.4 "degrade, don't abort").
func (a *Aggregator) Aggregate(ctx context.Context, gene, variant, resolvedTumorType string) *domain.Evidence {
	evidence := domain.NewEmptyEvidence(gene, variant)
	var mu sync.Mutex
	var wg sync.WaitGroup

	runSource := func(name string, fn func() error) {
		defer wg.Done()
		if err := fn(); err != nil {
			a.log.WithError(err).WithFields(logrus.Fields{
				"gene": gene, "variant": variant, "source": name,
			}).Warn("knowledge-base source failed, continuing with partial evidence")
		}
	}

	if a.clients.VariantAnnotation != nil {
		wg.Add(1)
		go runSource("variant-annotation", func() error {
			result, err := a.clients.VariantAnnotation.FetchEvidence(ctx, gene, variant)
			if err != nil {
				return err
			}
			if result == nil {
				return nil
			}
			mu.Lock()
			applyVariantAnnotationResult(evidence, result)
			mu.Unlock()
			return nil
		})
	}

	if a.clients.DrugLabel != nil {
		wg.Add(1)
		go runSource("drug-label", func() error {
			records, err := a.clients.DrugLabel.FetchDrugApprovals(ctx, gene, variant)
			if err != nil {
				return err
			}
			mu.Lock()
			for _, r := range records {
				if approval := kb.ParseApprovalData(r, gene, variant); approval != nil {
					evidence.DrugLabelRecords = append(evidence.DrugLabelRecords, *approval)
				}
			}
			mu.Unlock()
			return nil
		})
	}

	if a.clients.CuratedBiomarker != nil {
		wg.Add(1)
		go runSource("curated-biomarker", func() error {
			records, err := a.clients.CuratedBiomarker.FetchBiomarkers(ctx, gene, variant)
			if err != nil {
				return err
			}
			mu.Lock()
			evidence.CuratedBiomarkerRecords = append(evidence.CuratedBiomarkerRecords, records...)
			mu.Unlock()
			return nil
		})
	}

	if a.clients.HarmonizedKB != nil {
		wg.Add(1)
		go runSource("harmonized-kb", func() error {
			records, err := a.clients.HarmonizedKB.FetchAssertions(ctx, gene, variant)
			if err != nil {
				return err
			}
			mu.Lock()
			evidence.HarmonizedAssertions = append(evidence.HarmonizedAssertions, records...)
			mu.Unlock()
			return nil
		})
	}

	if a.clients.CuratedAssertion != nil {
		wg.Add(1)
		go runSource("curated-assertion", func() error {
			records, err := a.clients.CuratedAssertion.FetchAssertions(ctx, gene, variant)
			if err != nil {
				return err
			}
			mu.Lock()
			evidence.PredictiveAssertions = append(evidence.PredictiveAssertions, records...)
			mu.Unlock()
			return nil
		})
	}

	wg.Wait()
	return evidence
}

// ResolveTumorType delegates to the tumor-ontology client outside the
// fan-out. The KB fetches themselves do not take the tumor type; the engine
// passes the resolved name on to Aggregate, the FDA-record decoration and
// the prompt.
func (a *Aggregator) ResolveTumorType(ctx context.Context, tumorTypeInput string) (code, name string, err error) {
	if a.clients.TumorOntology == nil {
		return tumorTypeInput, tumorTypeInput, nil
	}
	return a.clients.TumorOntology.ResolveTumorType(ctx, tumorTypeInput)
}

// applyVariantAnnotationResult merges one variant-annotation lookup (the
// raw cross-reference hit plus its civic/ClinVar cascade) into evidence,
// per myvariant.py's fetch_evidence: the ClinVar fallback only applies when
// the hit itself carried nothing, so result.ClinVarID et al. only get set
// by the client when that backfill actually ran.
func applyVariantAnnotationResult(evidence *domain.Evidence, result *kb.VariantEvidenceResult) {
	if result.Hit != nil {
		applyVariantAnnotationHit(evidence, result.Hit)
	}
	if result.ClinVarID != "" {
		evidence.ClinVarID = result.ClinVarID
	}
	if result.ClinVarSignificance != "" {
		evidence.ClinVarSignificance = result.ClinVarSignificance
	}
	if result.ClinVarAccession != "" {
		evidence.ClinVarAccession = result.ClinVarAccession
	}
	if len(result.CivicAnnotations) > 0 {
		evidence.VariantAnnotations = append(evidence.VariantAnnotations, result.CivicAnnotations...)
	}
}

func applyVariantAnnotationHit(evidence *domain.Evidence, hit *kb.MyvariantHit) {
	if id := hit.CosmicIDString(); id != "" {
		evidence.CosmicID = id
	}
	if id := hit.ClinVarIDString(); id != "" {
		evidence.ClinVarID = id
	}
	if id := hit.DBSNPIDString(); id != "" {
		evidence.DBSNPID = id
	}
	if id := hit.NCBIGeneIDString(); id != "" {
		evidence.NCBIGeneID = id
	}
	if len(hit.HGVS.Genomic) > 0 {
		evidence.HGVSGenomic = hit.HGVS.Genomic[0]
	}
	if len(hit.HGVS.Protein) > 0 {
		evidence.HGVSProtein = hit.HGVS.Protein[0]
	}
	if len(hit.HGVS.Coding) > 0 {
		evidence.HGVSTranscript = hit.HGVS.Coding[0]
	}
	if len(hit.SnpEff.Ann) > 0 && hit.SnpEff.Ann[0].Effect != "" {
		evidence.SnpEffEffect = hit.SnpEff.Ann[0].Effect
	}
	if pred := hit.Dbnsfp.Polyphen2.Hdiv.Pred; pred != "" {
		evidence.Polyphen2 = pred
	}
	if phred := hit.Dbnsfp.Cadd.Phred; phred != 0 {
		evidence.CADDPhred = phred
	}
	if af := hit.GnomadExome.AF.AF; af != 0 {
		evidence.GnomadAF = af
	}
	if score := hit.Dbnsfp.Alphamissense.Score; score != 0 {
		evidence.AlphaMissenseScore = score
	}
	if pred := hit.Dbnsfp.Alphamissense.Pred; pred != "" {
		evidence.AlphaMissensePred = pred
	}
}
