package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/variant-actionability/assessor/internal/domain"
)

func TestNormalizeVariant_FormEquivalence(t *testing.T) {
	// spec §8 invariant 2: all four forms of the same change canonicalize
	// to the same short form and position.
	forms := []string{"V600E", "Val600Glu", "p.V600E", "p.Val600Glu"}
	for _, f := range forms {
		nv := NormalizeVariant("BRAF", f)
		assert.Equal(t, "V600E", nv.VariantNormalized, f)
		assert.Equal(t, domain.VariantMissense, nv.VariantType, f)
		if assert.NotNil(t, nv.ProteinChange, f) {
			assert.Equal(t, 600, nv.ProteinChange.Position, f)
		}
	}
}

func TestNormalizeVariant_Idempotence(t *testing.T) {
	// spec §8 invariant 1.
	for _, v := range []string{"V600E", "Val600Glu", "L747fs", "185delAG", "T790M"} {
		first := NormalizeVariant("EGFR", v)
		second := NormalizeVariant("EGFR", first.VariantNormalized)
		assert.Equal(t, first.VariantNormalized, second.VariantNormalized, v)
		assert.Equal(t, first.VariantType, second.VariantType, v)
	}
}

func TestClassifyVariantType_FrameshiftBeforeDeletion(t *testing.T) {
	// A variant string containing both "fs" and "del" tokens must classify
	// as frameshift, never deletion (spec §4.1 step 3 ordering invariant).
	assert.Equal(t, domain.VariantFrameshift, ClassifyVariantType("L747delfs"))
	assert.Equal(t, domain.VariantFrameshift, ClassifyVariantType("L747fs"))
	assert.Equal(t, domain.VariantDeletion, ClassifyVariantType("185delAG"))
}

func TestClassifyVariantType_StructuralRejected(t *testing.T) {
	// spec §8 invariant 3.
	rejected := []string{
		"ALK fusion", "ERBB2 amplification", "EGFR rearrangement",
		"HER2 overexpression", "EGFR exon 14 skipping", "BRAF truncating",
	}
	for _, v := range rejected {
		nv := NormalizeVariant("GENE", v)
		assert.False(t, nv.VariantType.IsAllowed(), v)
	}
}

func TestClassifyVariantType_Table(t *testing.T) {
	cases := []struct {
		variant string
		want    domain.VariantType
	}{
		{"V600E", domain.VariantMissense},
		{"R273H", domain.VariantMissense},
		{"Q61*", domain.VariantNonsense},
		{"L747_P753delinsS", domain.VariantDeletion},
		{"185delAG", domain.VariantDeletion},
		{"L747fs", domain.VariantFrameshift},
		{"A763_Y764insFQEA", domain.VariantInsertion},
		{"V659_E661dup", domain.VariantDuplication},
		{"fusion", domain.VariantFusion},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyVariantType(c.variant), c.variant)
	}
}

func TestIsSNPOrSmallIndel(t *testing.T) {
	assert.True(t, IsSNPOrSmallIndel("BRAF", "V600E"))
	assert.True(t, IsSNPOrSmallIndel("EGFR", "L747_P753delinsS"))
	assert.False(t, IsSNPOrSmallIndel("ALK", "fusion"))
	assert.False(t, IsSNPOrSmallIndel("ERBB2", "amplification"))
}
