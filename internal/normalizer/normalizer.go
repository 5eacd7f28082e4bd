// Package normalizer canonicalizes heterogeneous protein-change notations
// into a single comparable form and classifies a variant's mutational type.
//
// Grounded verbatim on original_source/.../utils/variant_normalization.py:
// pattern order, structural-variant keyword checks, and — critically — the
// frameshift-before-deletion ordering (a frameshift variant string often
// contains "del", e.g. "L747fs" does not, but "2235_2249del15" frameshifts
// do sometimes carry both tokens; the source checks FRAMESHIFT_PATTERN
// before DELETION_PATTERN and this package preserves that order exactly).
package normalizer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/variant-actionability/assessor/internal/domain"
)

var (
	missensePattern        = regexp.MustCompile(`^([A-Za-z*])(\d+)([A-Za-z*])$`)
	missense3LetterPattern = regexp.MustCompile(`^([A-Za-z]{3})(\d+)([A-Za-z]{3})$`)
	hgvsProteinPattern     = regexp.MustCompile(`^[Pp]\.([A-Za-z]{1,3})(\d+)([A-Za-z*]{1,3})$`)
	deletionPattern        = regexp.MustCompile(`(?i)del`)
	insertionPattern       = regexp.MustCompile(`(?i)ins`)
	duplicationPattern     = regexp.MustCompile(`(?i)dup`)
	frameshiftPattern      = regexp.MustCompile(`(?i)fs`)
	nonsensePattern        = regexp.MustCompile(`(?i)([A-Z*])(\d+)\*`)
)

// NormalizeProteinChange parses variant (in any supported notation) into a
// domain.ProteinChange. The returned pointer is nil when the string does not
// match a one- or three-letter missense/nonsense pattern.
func NormalizeProteinChange(variant string) *domain.ProteinChange {
	v := strings.TrimSpace(variant)
	if len(v) >= 2 && strings.EqualFold(v[:2], "p.") {
		v = v[2:]
	}

	if m := missensePattern.FindStringSubmatch(v); m != nil {
		ref := strings.ToUpper(m[1])
		alt := strings.ToUpper(m[3])
		pos, _ := strconv.Atoi(m[2])
		pc := &domain.ProteinChange{
			RefAA:     ref,
			Position:  pos,
			AltAA:     alt,
			ShortForm: ref + m[2] + alt,
			HGVS:      "p." + ref + m[2] + alt,
		}
		if ref3, ok := AminoAcid1To3[ref]; ok {
			if alt3, ok := AminoAcid1To3[alt]; ok {
				pc.LongForm = ref3 + m[2] + alt3
			}
		}
		return pc
	}

	if m := missense3LetterPattern.FindStringSubmatch(v); m != nil {
		ref3 := strings.ToUpper(m[1])
		alt3 := strings.ToUpper(m[3])
		ref, refOK := AminoAcid3To1[ref3]
		alt, altOK := AminoAcid3To1[alt3]
		if refOK && altOK {
			pos, _ := strconv.Atoi(m[2])
			return &domain.ProteinChange{
				RefAA:     ref,
				Position:  pos,
				AltAA:     alt,
				ShortForm: ref + m[2] + alt,
				HGVS:      "p." + ref + m[2] + alt,
				LongForm:  ref3 + m[2] + alt3,
			}
		}
	}

	return nil
}

// isMissense reports whether pc represents a true missense change (alt != *).
func isMissense(pc *domain.ProteinChange) bool {
	return pc != nil && pc.AltAA != "*"
}

// ClassifyVariantType implements the ordered, mutually-exclusive
// classification of spec §4.1 step 3.
func ClassifyVariantType(variant string) domain.VariantType {
	lower := strings.ToLower(variant)

	switch {
	case containsAny(lower, "fusion", "fus", "rearrangement"):
		return domain.VariantFusion
	case containsAny(lower, "amp", "amplification", "overexpression"):
		return domain.VariantAmplification
	case strings.Contains(lower, "truncat"):
		return domain.VariantTruncating
	case containsAny(lower, "splice", "exon", "skip"):
		return domain.VariantSplice
	}

	// Indels: frameshift MUST be checked before deletion (spec invariant).
	switch {
	case frameshiftPattern.MatchString(variant):
		return domain.VariantFrameshift
	case deletionPattern.MatchString(variant):
		return domain.VariantDeletion
	case insertionPattern.MatchString(variant):
		return domain.VariantInsertion
	case duplicationPattern.MatchString(variant):
		return domain.VariantDuplication
	}

	if nonsensePattern.MatchString(variant) {
		return domain.VariantNonsense
	}

	if isMissense(NormalizeProteinChange(variant)) {
		return domain.VariantMissense
	}

	return domain.VariantUnknown
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// NormalizeVariant runs the full pipeline of spec §4.1: uppercase the gene,
// classify the variant type, and attempt protein-change parsing.
func NormalizeVariant(gene, variant string) domain.NormalizedVariant {
	result := domain.NormalizedVariant{
		Gene:              strings.ToUpper(strings.TrimSpace(gene)),
		VariantOriginal:   variant,
		VariantNormalized: strings.TrimSpace(variant),
		VariantType:       ClassifyVariantType(variant),
	}

	if pc := NormalizeProteinChange(variant); pc != nil && pc.ShortForm != "" {
		result.VariantNormalized = pc.ShortForm
		result.ProteinChange = pc
	}

	return result
}

// IsSNPOrSmallIndel reports whether the classified type is in the allowed
// set (spec §4.1 step 4 / §4.8 step 1 fail-fast gate).
func IsSNPOrSmallIndel(gene, variant string) bool {
	nv := NormalizeVariant(gene, variant)
	return nv.VariantType.IsAllowed()
}
