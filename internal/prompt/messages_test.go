package prompt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/variant-actionability/assessor/internal/domain"
)

func TestBuildMessages_TwoTurnDialog(t *testing.T) {
	messages := BuildMessages("BRAF", "p.V600E", "melanoma", "some evidence")
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].Role)
	require.Equal(t, "user", messages[1].Role)
	require.Contains(t, messages[1].Content, "BRAF")
	require.Contains(t, messages[1].Content, "p.V600E")
	require.Contains(t, messages[1].Content, "melanoma")
}

func TestBuildMessages_UnspecifiedTumorType(t *testing.T) {
	messages := BuildMessages("KRAS", "p.G12D", "", "evidence")
	require.Contains(t, messages[1].Content, "Unspecified")
}

func TestBuildEvidenceSummary_IncludesHeaderAndCompact(t *testing.T) {
	ev := domain.NewEmptyEvidence("BRAF", "p.V600E")
	summary := BuildEvidenceSummary(ev, "melanoma")
	require.Contains(t, summary, "BRAF")
	require.Contains(t, summary, "p.V600E")
}

func TestSummaryCompact_EmptyEvidenceHasNoSourceBlocks(t *testing.T) {
	ev := domain.NewEmptyEvidence("KRAS", "p.G12D")
	out := SummaryCompact(ev, "pancreatic cancer")
	require.Contains(t, out, "KRAS")
	require.NotContains(t, out, "FDA Approved Drugs")
}
