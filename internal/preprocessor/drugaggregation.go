package preprocessor

import (
	"sort"
	"strings"

	"github.com/variant-actionability/assessor/internal/domain"
)

// NetSignal is a drug's aggregate sensitivity/resistance verdict, spec §4.5.7.
type NetSignal string

const (
	NetSensitive NetSignal = "SENSITIVE"
	NetResistant NetSignal = "RESISTANT"
	NetMixed     NetSignal = "MIXED"
)

// DrugAggregate is one row of the drug-level aggregation (spec §4.5.7).
type DrugAggregate struct {
	Drug              string
	SensitivityCount  int
	ResistanceCount   int
	SensitivityLevels map[string]int
	ResistanceLevels  map[string]int
	Diseases          []string
	BestLevel         string
	NetSignal         NetSignal
}

var levelPriority = map[string]int{"A": 0, "B": 1, "C": 2, "D": 3}

// AggregateEvidenceByDrug groups predictive records by drug across the
// harmonized-KB and variant-annotation (civic) sources (spec §4.5.7), computing a
// best evidence level and a net sensitivity/resistance signal per drug.
// Output is sorted by (best level, total count desc).
func AggregateEvidenceByDrug(ev *domain.Evidence) []DrugAggregate {
	type entry struct {
		drug              string
		sensitivityCount  int
		resistanceCount   int
		sensitivityLevels map[string]int
		resistanceLevels  map[string]int
		diseases          map[string]struct{}
		bestLevel         string
	}
	data := map[string]*entry{}

	addEntry := func(drug string, isSens bool, level, disease string) {
		key := strings.ToLower(strings.TrimSpace(drug))
		if key == "" {
			return
		}
		e, ok := data[key]
		if !ok {
			e = &entry{
				drug:              drug,
				sensitivityLevels: map[string]int{},
				resistanceLevels:  map[string]int{},
				diseases:          map[string]struct{}{},
				bestLevel:         "D",
			}
			data[key] = e
		}
		lvl := levelOrUnknown(level)
		if isSens {
			e.sensitivityCount++
			e.sensitivityLevels[lvl]++
		} else {
			e.resistanceCount++
			e.resistanceLevels[lvl]++
		}
		if disease != "" {
			d := disease
			if len(d) > 50 {
				d = d[:50]
			}
			e.diseases[d] = struct{}{}
		}
		if level != "" && levelPriority[level] < levelPriority[e.bestLevel] {
			e.bestLevel = level
		}
	}

	for _, a := range ev.HarmonizedAssertions {
		for _, drug := range a.Drugs {
			if a.IsSensitivity() {
				addEntry(drug, true, a.EvidenceLevel, a.Disease)
			} else if a.IsResistance() {
				addEntry(drug, false, a.EvidenceLevel, a.Disease)
			}
		}
	}

	for _, a := range ev.VariantAnnotations {
		isSens := a.IsSensitivity()
		isRes := a.IsResistance()
		if !isSens && !isRes {
			continue
		}
		for _, drug := range a.Drugs {
			addEntry(drug, isSens, a.EvidenceLevel, a.Disease)
		}
	}

	results := make([]DrugAggregate, 0, len(data))
	for _, e := range data {
		sens, res := e.sensitivityCount, e.resistanceCount
		var net NetSignal
		switch {
		case sens > 0 && res == 0:
			net = NetSensitive
		case res > 0 && sens == 0:
			net = NetResistant
		case sens >= res*3:
			net = NetSensitive
		case res >= sens*3:
			net = NetResistant
		default:
			net = NetMixed
		}

		diseases := make([]string, 0, len(e.diseases))
		for d := range e.diseases {
			diseases = append(diseases, d)
		}
		sort.Strings(diseases)
		if len(diseases) > 5 {
			diseases = diseases[:5]
		}

		results = append(results, DrugAggregate{
			Drug:              e.drug,
			SensitivityCount:  sens,
			ResistanceCount:   res,
			SensitivityLevels: e.sensitivityLevels,
			ResistanceLevels:  e.resistanceLevels,
			Diseases:          diseases,
			BestLevel:         e.bestLevel,
			NetSignal:         net,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		pi, pj := levelPriority[results[i].BestLevel], levelPriority[results[j].BestLevel]
		if pi != pj {
			return pi < pj
		}
		ti := results[i].SensitivityCount + results[i].ResistanceCount
		tj := results[j].SensitivityCount + results[j].ResistanceCount
		return ti > tj
	})

	return results
}
