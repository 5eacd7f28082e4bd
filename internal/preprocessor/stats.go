package preprocessor

import (
	"strings"

	"github.com/variant-actionability/assessor/internal/domain"
)

// DominantSignal is the categorical sensitivity/resistance balance of spec
// §4.5.5.
type DominantSignal string

const (
	SignalNone                DominantSignal = "none"
	SignalSensitivityOnly     DominantSignal = "sensitivity_only"
	SignalResistanceOnly      DominantSignal = "resistance_only"
	SignalSensitivityDominant DominantSignal = "sensitivity_dominant"
	SignalResistanceDominant  DominantSignal = "resistance_dominant"
	SignalMixed               DominantSignal = "mixed"
)

// DrugConflict records a drug with both sensitivity and resistance signal
// across sources, per spec §4.5.5's conflict detection.
type DrugConflict struct {
	Drug                string
	SensitivityContext  string
	ResistanceContext   string
	SensitivityCount    int
	ResistanceCount     int
}

// EvidenceStats is the output of ComputeEvidenceStats (spec §4.5.5).
type EvidenceStats struct {
	SensitivityCount  int
	ResistanceCount   int
	SensitivityByLevel map[string]int
	ResistanceByLevel  map[string]int
	Conflicts         []DrugConflict
	DominantSignal    DominantSignal
	HasFDAApproved    bool
}

type drugSignalEntry struct {
	level   string
	disease string
}

type drugSignals struct {
	drugName   string
	sensitivity []drugSignalEntry
	resistance  []drugSignalEntry
}

// ComputeEvidenceStats aggregates sensitivity/resistance counts across the
// harmonized-KB and variant-annotation (civic) sources and detects per-drug
// conflicts, per spec §4.5.5.
func ComputeEvidenceStats(ev *domain.Evidence) EvidenceStats {
	stats := EvidenceStats{
		SensitivityByLevel: map[string]int{},
		ResistanceByLevel:  map[string]int{},
		HasFDAApproved:     len(ev.DrugLabelRecords) > 0 || anyFDAApprovedBiomarker(ev),
	}

	signals := map[string]*drugSignals{}
	addSignal := func(drug, signalType, level, disease string) {
		key := strings.ToLower(strings.TrimSpace(drug))
		if key == "" {
			return
		}
		s, ok := signals[key]
		if !ok {
			s = &drugSignals{drugName: drug}
			signals[key] = s
		}
		entry := drugSignalEntry{level: level, disease: disease}
		if signalType == "sensitivity" {
			s.sensitivity = append(s.sensitivity, entry)
		} else {
			s.resistance = append(s.resistance, entry)
		}
	}

	for _, a := range ev.HarmonizedAssertions {
		level := levelOrUnknown(a.EvidenceLevel)
		switch {
		case a.IsSensitivity():
			stats.SensitivityCount++
			stats.SensitivityByLevel[level]++
			for _, d := range a.Drugs {
				addSignal(d, "sensitivity", level, a.Disease)
			}
		case a.IsResistance():
			stats.ResistanceCount++
			stats.ResistanceByLevel[level]++
			for _, d := range a.Drugs {
				addSignal(d, "resistance", level, a.Disease)
			}
		}
	}

	for _, a := range ev.VariantAnnotations {
		level := levelOrUnknown(a.EvidenceLevel)
		switch {
		case a.IsResistance():
			stats.ResistanceCount++
			stats.ResistanceByLevel[level]++
			for _, d := range a.Drugs {
				addSignal(d, "resistance", level, a.Disease)
			}
		case a.IsSensitivity():
			stats.SensitivityCount++
			stats.SensitivityByLevel[level]++
			for _, d := range a.Drugs {
				addSignal(d, "sensitivity", level, a.Disease)
			}
		}
	}

	for _, s := range signals {
		if len(s.sensitivity) > 0 && len(s.resistance) > 0 {
			stats.Conflicts = append(stats.Conflicts, DrugConflict{
				Drug:               s.drugName,
				SensitivityContext: joinDiseases(s.sensitivity, 3),
				ResistanceContext:  joinDiseases(s.resistance, 3),
				SensitivityCount:   len(s.sensitivity),
				ResistanceCount:    len(s.resistance),
			})
		}
	}

	total := stats.SensitivityCount + stats.ResistanceCount
	switch {
	case total == 0:
		stats.DominantSignal = SignalNone
	case stats.SensitivityCount == 0:
		stats.DominantSignal = SignalResistanceOnly
	case stats.ResistanceCount == 0:
		stats.DominantSignal = SignalSensitivityOnly
	case float64(stats.SensitivityCount) >= float64(total)*0.8:
		stats.DominantSignal = SignalSensitivityDominant
	case float64(stats.ResistanceCount) >= float64(total)*0.8:
		stats.DominantSignal = SignalResistanceDominant
	default:
		stats.DominantSignal = SignalMixed
	}

	return stats
}

func anyFDAApprovedBiomarker(ev *domain.Evidence) bool {
	for _, b := range ev.CuratedBiomarkerRecords {
		if b.IsFDAApproved() {
			return true
		}
	}
	return false
}

func levelOrUnknown(level string) string {
	if level == "" {
		return "Unknown"
	}
	return level
}

func joinDiseases(entries []drugSignalEntry, limit int) string {
	seen := map[string]struct{}{}
	var out []string
	for i, e := range entries {
		if i >= limit {
			break
		}
		d := e.disease
		if d == "" {
			d = "unspecified"
		}
		if len(d) > 50 {
			d = d[:50]
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return strings.Join(out, ", ")
}

// FilterLowQualityMinoritySignals implements spec §4.5.6: when one
// direction has high-quality (A/B) evidence and the other has only
// low-quality (C/D) evidence with <=2 entries, the minority side is
// dropped. Returns the (possibly filtered) sensitivity and resistance
// assertion lists from the harmonized-KB source.
func FilterLowQualityMinoritySignals(ev *domain.Evidence) (sensitivity, resistance []domain.HarmonizedAssertion) {
	for _, a := range ev.HarmonizedAssertions {
		if a.IsSensitivity() {
			sensitivity = append(sensitivity, a)
		} else if a.IsResistance() {
			resistance = append(resistance, a)
		}
	}

	highQuality := map[string]bool{"A": true, "B": true}
	lowQuality := map[string]bool{"C": true, "D": true}

	sensLevels := levelSet(sensitivity, func(a domain.HarmonizedAssertion) string { return a.EvidenceLevel })
	resLevels := levelSet(resistance, func(a domain.HarmonizedAssertion) string { return a.EvidenceLevel })

	sensHasHigh := anyIn(sensLevels, highQuality)
	sensOnlyLow := len(sensLevels) > 0 && allIn(sensLevels, lowQuality)
	resHasHigh := anyIn(resLevels, highQuality)
	resOnlyLow := len(resLevels) > 0 && allIn(resLevels, lowQuality)

	if sensHasHigh && resOnlyLow && len(resistance) <= 2 {
		return sensitivity, nil
	}
	if resHasHigh && sensOnlyLow && len(sensitivity) <= 2 {
		return nil, resistance
	}
	return sensitivity, resistance
}

func levelSet(assertions []domain.HarmonizedAssertion, levelOf func(domain.HarmonizedAssertion) string) map[string]bool {
	out := map[string]bool{}
	for _, a := range assertions {
		if l := levelOf(a); l != "" {
			out[l] = true
		}
	}
	return out
}

func anyIn(set, within map[string]bool) bool {
	for k := range set {
		if within[k] {
			return true
		}
	}
	return false
}

func allIn(set, within map[string]bool) bool {
	for k := range set {
		if !within[k] {
			return false
		}
	}
	return true
}
