package graph

import (
	"github.com/quantboard-lab/quantboard/internal/catalog"
	"github.com/quantboard-lab/quantboard/internal/types"
)

type visitColor int

const (
	colorUnvisited visitColor = iota
	colorInProgress
	colorDone
)

// TopologicalSort orders the catalog's indicators so that every indicator
// follows all indicators listed in its dependencies. Dependency ids absent
// from the catalog are skipped (treated as already satisfied externally).
//
// Cycles are tolerated: every indicator participating in a cycle, along with
// any indicator whose dependency chain reaches the cycle, is excluded from
// the order and reported in cycles, while unrelated indicators are still
// scheduled. Indicators with no ordering constraint between them keep the
// catalog's insertion order, so the result is deterministic for a fixed
// catalog.
func TopologicalSort(cat catalog.Catalog) (ordered []types.Indicator, cycles []string) {
	colors := make(map[string]visitColor)
	excluded := make(map[string]bool)

	var visit func(indicator types.Indicator) bool

	visit = func(indicator types.Indicator) bool {
		switch colors[indicator.ID] {
		case colorDone:
			return !excluded[indicator.ID]
		case colorInProgress:
			// cycle closes here
			return false
		case colorUnvisited:
		}

		colors[indicator.ID] = colorInProgress
		ok := true

		for _, depID := range indicator.Dependencies {
			dep, found := cat.Get(depID)
			if !found {
				continue
			}

			if !visit(dep) {
				ok = false
			}
		}

		colors[indicator.ID] = colorDone

		if !ok {
			excluded[indicator.ID] = true
			cycles = append(cycles, indicator.ID)

			return false
		}

		ordered = append(ordered, indicator)

		return true
	}

	for _, indicator := range cat.List() {
		visit(indicator)
	}

	return ordered, cycles
}

// Validity probes the catalog for dependency cycles and returns its explicit
// validity state together with the excluded indicator ids.
func Validity(cat catalog.Catalog) (types.CatalogValidity, []string) {
	_, cycles := TopologicalSort(cat)
	if len(cycles) > 0 {
		return types.CatalogHasCycles, cycles
	}

	return types.CatalogValid, nil
}
