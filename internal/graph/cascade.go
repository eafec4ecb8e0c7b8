package graph

import (
	"slices"

	"github.com/quantboard-lab/quantboard/internal/catalog"
	"github.com/quantboard-lab/quantboard/internal/types"
)

// DirectDependents returns the indicators whose dependency list contains id,
// in catalog order.
func DirectDependents(cat catalog.Catalog, id string) []types.Indicator {
	var dependents []types.Indicator

	for _, indicator := range cat.List() {
		if slices.Contains(indicator.Dependencies, id) {
			dependents = append(dependents, indicator)
		}
	}

	return dependents
}

// CascadeSet computes the transitive closure of indicators depending on id,
// directly or indirectly, including the seed itself. The result carries no
// ordering guarantee; callers deleting the set should remove dependents
// leaves-first (reverse topological order) to avoid dangling references
// mid-operation.
//
// A revisit guard makes the fixed-point iteration terminate even when the
// dependent graph contains cycles.
func CascadeSet(cat catalog.Catalog, id string) []string {
	visited := map[string]bool{id: true}
	result := []string{id}
	frontier := []string{id}

	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]

		for _, dependent := range DirectDependents(cat, next) {
			if visited[dependent.ID] {
				continue
			}

			visited[dependent.ID] = true
			result = append(result, dependent.ID)
			frontier = append(frontier, dependent.ID)
		}
	}

	return result
}

// ColumnDependents maps each given column name to the indicators whose
// dependency columns contain it. Used to decide which indicators need
// recomputation after an upstream column's values change, independent of
// id-level dependencies.
func ColumnDependents(cat catalog.Catalog, columns []string) map[string][]types.Indicator {
	dependents := make(map[string][]types.Indicator, len(columns))

	for _, column := range columns {
		for _, indicator := range cat.List() {
			if slices.Contains(indicator.DependencyColumns, column) {
				dependents[column] = append(dependents[column], indicator)
			}
		}
	}

	return dependents
}
