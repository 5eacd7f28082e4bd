package preprocessor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/variant-actionability/assessor/internal/domain"
)

func TestAggregateEvidenceByDrug_SensitivityAndResistance(t *testing.T) {
	ev := domain.NewEmptyEvidence("BRAF", "p.V600E")
	ev.HarmonizedAssertions = []domain.HarmonizedAssertion{
		{Drugs: []string{"Vemurafenib"}, EvidenceLevel: "A", ResponseType: "Sensitivity", Disease: "melanoma"},
		{Drugs: []string{"Vemurafenib"}, EvidenceLevel: "B", ResponseType: "Sensitivity", Disease: "melanoma"},
		{Drugs: []string{"Trametinib"}, EvidenceLevel: "C", ResponseType: "Resistant", Disease: "melanoma"},
	}

	aggregates := AggregateEvidenceByDrug(ev)
	require.Len(t, aggregates, 2)

	byDrug := map[string]DrugAggregate{}
	for _, a := range aggregates {
		byDrug[a.Drug] = a
	}

	vem := byDrug["Vemurafenib"]
	require.Equal(t, 2, vem.SensitivityCount)
	require.Equal(t, 0, vem.ResistanceCount)
	require.Equal(t, NetSensitive, vem.NetSignal)
	require.Equal(t, "A", vem.BestLevel)

	tram := byDrug["Trametinib"]
	require.Equal(t, 0, tram.SensitivityCount)
	require.Equal(t, 1, tram.ResistanceCount)
	require.Equal(t, NetResistant, tram.NetSignal)
}

func TestAggregateEvidenceByDrug_Empty(t *testing.T) {
	ev := domain.NewEmptyEvidence("KRAS", "p.G12D")
	require.Empty(t, AggregateEvidenceByDrug(ev))
}

func TestTumorMatches(t *testing.T) {
	require.True(t, TumorMatches("melanoma", "Melanoma"))
	require.False(t, TumorMatches("melanoma", "lung adenocarcinoma"))
}
