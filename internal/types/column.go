package types

import "strings"

// Column naming grammar exposed to script authors:
//
//	bare:       column            a single indicator's output or a raw price field
//	namespaced: group:output      one output of a group indicator
//	external:   dataset@column    a column borrowed from a named external dataset,
//	                              where column follows either form above

const (
	groupSeparator    = ":"
	externalSeparator = "@"
)

// GroupColumn builds the namespaced column name for one output of a group
// indicator.
func GroupColumn(group, output string) string {
	return group + groupSeparator + output
}

// SplitGroupColumn splits a "group:output" column name. ok is false when the
// column is not namespaced.
func SplitGroupColumn(column string) (group, output string, ok bool) {
	group, output, ok = strings.Cut(column, groupSeparator)
	if !ok || group == "" || output == "" {
		return "", "", false
	}

	return group, output, true
}

// ExternalColumn builds the qualified name of a column borrowed from an
// external dataset.
func ExternalColumn(dataset, column string) string {
	return dataset + externalSeparator + column
}

// SplitExternalColumn splits a "dataset@column" qualified name. ok is false
// when the column carries no dataset qualifier.
func SplitExternalColumn(column string) (dataset, col string, ok bool) {
	dataset, col, ok = strings.Cut(column, externalSeparator)
	if !ok || dataset == "" || col == "" {
		return "", "", false
	}

	return dataset, col, true
}

// IsExternalColumn reports whether the column name carries a dataset
// qualifier.
func IsExternalColumn(column string) bool {
	_, _, ok := SplitExternalColumn(column)

	return ok
}
