package graph

import (
	"testing"

	"github.com/quantboard-lab/quantboard/internal/catalog"
	"github.com/quantboard-lab/quantboard/internal/types"
	"github.com/stretchr/testify/suite"
)

type TopoSortTestSuite struct {
	suite.Suite
}

func TestTopoSortSuite(t *testing.T) {
	suite.Run(t, new(TopoSortTestSuite))
}

func node(id string, deps ...string) types.Indicator {
	return types.Indicator{
		ID:           id,
		Name:         id,
		SourceCode:   "def calculate(data): ...",
		OutputColumn: id,
		Dependencies: deps,
	}
}

func (suite *TopoSortTestSuite) newCatalog(indicators ...types.Indicator) *catalog.MemoryCatalog {
	cat, err := catalog.NewMemoryCatalogWith(indicators...)
	suite.Require().NoError(err)

	return cat
}

func ids(indicators []types.Indicator) []string {
	result := make([]string, 0, len(indicators))
	for _, indicator := range indicators {
		result = append(result, indicator.ID)
	}

	return result
}

func (suite *TopoSortTestSuite) assertOrderRespectsDependencies(cat catalog.Catalog, ordered []types.Indicator) {
	position := make(map[string]int)
	for i, indicator := range ordered {
		position[indicator.ID] = i
	}

	for _, indicator := range ordered {
		for _, depID := range indicator.Dependencies {
			if _, inCatalog := cat.Get(depID); !inCatalog {
				continue
			}

			depPos, scheduled := position[depID]
			suite.True(scheduled, "dependency %s of %s must be scheduled", depID, indicator.ID)
			suite.Less(depPos, position[indicator.ID],
				"dependency %s must come before %s", depID, indicator.ID)
		}
	}
}

func (suite *TopoSortTestSuite) TestChain() {
	cat := suite.newCatalog(node("c", "b"), node("b", "a"), node("a"))

	ordered, cycles := TopologicalSort(cat)
	suite.Empty(cycles)
	suite.Equal([]string{"a", "b", "c"}, ids(ordered))
	suite.assertOrderRespectsDependencies(cat, ordered)
}

func (suite *TopoSortTestSuite) TestIndependentNodesKeepCatalogOrder() {
	cat := suite.newCatalog(node("z"), node("m"), node("a"))

	ordered, cycles := TopologicalSort(cat)
	suite.Empty(cycles)
	suite.Equal([]string{"z", "m", "a"}, ids(ordered))
}

func (suite *TopoSortTestSuite) TestDiamond() {
	cat := suite.newCatalog(node("d", "b", "c"), node("b", "a"), node("c", "a"), node("a"))

	ordered, cycles := TopologicalSort(cat)
	suite.Empty(cycles)
	suite.assertOrderRespectsDependencies(cat, ordered)
	suite.Len(ordered, 4)
	suite.Equal("a", ordered[0].ID)
	suite.Equal("d", ordered[3].ID)
}

func (suite *TopoSortTestSuite) TestMissingDependencySkipped() {
	// A dependency id absent from the catalog is treated as satisfied
	// externally, not as an error.
	cat := suite.newCatalog(node("b", "ghost"), node("a"))

	ordered, cycles := TopologicalSort(cat)
	suite.Empty(cycles)
	suite.Equal([]string{"b", "a"}, ids(ordered))
}

func (suite *TopoSortTestSuite) TestTwoNodeCycle() {
	cat := suite.newCatalog(node("a", "b"), node("b", "a"), node("c"))

	ordered, cycles := TopologicalSort(cat)
	suite.Equal([]string{"c"}, ids(ordered))
	suite.ElementsMatch([]string{"a", "b"}, cycles)
}

func (suite *TopoSortTestSuite) TestSelfCycle() {
	cat := suite.newCatalog(node("a", "a"), node("b"))

	ordered, cycles := TopologicalSort(cat)
	suite.Equal([]string{"b"}, ids(ordered))
	suite.Equal([]string{"a"}, cycles)
}

func (suite *TopoSortTestSuite) TestCycleDoesNotBlockUnrelatedCluster() {
	cat := suite.newCatalog(
		node("a", "b"), node("b", "a"),
		node("x"), node("y", "x"),
	)

	ordered, cycles := TopologicalSort(cat)
	suite.Equal([]string{"x", "y"}, ids(ordered))
	suite.ElementsMatch([]string{"a", "b"}, cycles)
}

func (suite *TopoSortTestSuite) TestDependentOfCycleExcluded() {
	// c depends on the cyclic cluster, so its dependency can never be
	// satisfied in this pass.
	cat := suite.newCatalog(node("a", "b"), node("b", "a"), node("c", "a"), node("d"))

	ordered, cycles := TopologicalSort(cat)
	suite.Equal([]string{"d"}, ids(ordered))
	suite.ElementsMatch([]string{"a", "b", "c"}, cycles)
}

func (suite *TopoSortTestSuite) TestDeterministicAcrossRuns() {
	cat := suite.newCatalog(node("b", "a"), node("a"), node("c", "a"))

	first, _ := TopologicalSort(cat)
	second, _ := TopologicalSort(cat)
	suite.Equal(ids(first), ids(second))
	suite.Equal([]string{"a", "b", "c"}, ids(first))
}

func (suite *TopoSortTestSuite) TestValidity() {
	valid := suite.newCatalog(node("b", "a"), node("a"))
	state, cycleNodes := Validity(valid)
	suite.Equal(types.CatalogValid, state)
	suite.Empty(cycleNodes)

	cyclic := suite.newCatalog(node("a", "b"), node("b", "a"))
	state, cycleNodes = Validity(cyclic)
	suite.Equal(types.CatalogHasCycles, state)
	suite.ElementsMatch([]string{"a", "b"}, cycleNodes)
}
