package graph

import (
	"fmt"
	"regexp"

	"github.com/quantboard-lab/quantboard/internal/catalog"
	"github.com/quantboard-lab/quantboard/internal/types"
)

// Detection is the result of scanning an indicator's source code for
// references to other indicators' output columns.
type Detection struct {
	// Dependencies holds the ids of referenced indicators, first-seen order.
	Dependencies []string
	// DependencyColumns holds the exact output columns referenced. Finer
	// grained than Dependencies: a dependency on a group indicator may cover
	// only a subset of its outputs.
	DependencyColumns []string
}

// externalRefPattern matches "{dataset}@{column}" qualified references inside
// the two quoting styles of the script dialect.
var externalRefPattern = regexp.MustCompile(`'([^'@\n]+)@([^'\n]+)'|"([^"@\n]+)@([^"\n]+)"`)

// DetectDependencies scans source code for references to other indicators'
// output columns. Matching is purely lexical: no execution, no AST. The scan
// is deterministic and idempotent given a fixed catalog ordering, so stored
// dependency fields can always be regenerated identically.
//
// Self references are excluded by id, not by column text, so iterative
// formulas reading the indicator's own output column do not create an edge.
func DetectDependencies(sourceCode, selfID string, cat catalog.Catalog) Detection {
	detection := Detection{
		Dependencies:      nil,
		DependencyColumns: nil,
	}

	seenIDs := make(map[string]bool)
	seenColumns := make(map[string]bool)

	addMatch := func(ownerID, column string) {
		if !seenIDs[ownerID] {
			seenIDs[ownerID] = true

			detection.Dependencies = append(detection.Dependencies, ownerID)
		}

		if !seenColumns[column] {
			seenColumns[column] = true

			detection.DependencyColumns = append(detection.DependencyColumns, column)
		}
	}

	// Step 1: qualified "{dataset}@{column}" references. The column part is
	// compared against every other indicator's output surface; group
	// indicators match both the namespaced and the bare output form.
	for _, match := range externalRefPattern.FindAllStringSubmatch(sourceCode, -1) {
		column := match[2]
		if column == "" {
			column = match[4]
		}

		for _, candidate := range cat.List() {
			if candidate.ID == selfID {
				continue
			}

			if matched, ok := matchOutputSurface(&candidate, column); ok {
				addMatch(candidate.ID, matched)
			}
		}
	}

	// Step 2: direct references to each candidate's column names. Group
	// indicators contribute a match per expected output independently, so a
	// dependent can reference only some of another group's outputs.
	for _, candidate := range cat.List() {
		if candidate.ID == selfID {
			continue
		}

		for _, column := range candidate.OutputColumns() {
			if seenColumns[column] {
				// already captured by the qualified scan
				continue
			}

			if referencesColumn(sourceCode, column) {
				addMatch(candidate.ID, column)
			}
		}
	}

	return detection
}

// matchOutputSurface compares a referenced column name against an indicator's
// output surface and returns the canonical produced column name on match.
func matchOutputSurface(indicator *types.Indicator, column string) (string, bool) {
	if indicator.IsGroup() {
		for _, output := range indicator.ExpectedOutputs {
			qualified := types.GroupColumn(indicator.GroupName, output)
			if column == qualified || column == output {
				return qualified, true
			}
		}

		return "", false
	}

	if column == indicator.OutputColumn {
		return indicator.OutputColumn, true
	}

	return "", false
}

// referencesColumn reports whether source contains a direct textual reference
// to the column, in any of the four shapes the script dialect uses: bracket
// access with single or double quotes, attribute-style access, and a bare
// quoted-string occurrence (which covers keys of constructed return
// mappings).
func referencesColumn(source, column string) bool {
	quoted := regexp.QuoteMeta(column)

	patterns := []string{
		fmt.Sprintf(`\[\s*'%s'\s*\]`, quoted),
		fmt.Sprintf(`\[\s*"%s"\s*\]`, quoted),
		fmt.Sprintf(`\.%s\b`, quoted),
		fmt.Sprintf(`'%s'`, quoted),
		fmt.Sprintf(`"%s"`, quoted),
	}

	for _, pattern := range patterns {
		if regexp.MustCompile(pattern).MatchString(source) {
			return true
		}
	}

	return false
}
