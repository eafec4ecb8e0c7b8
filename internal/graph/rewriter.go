package graph

import (
	"fmt"
	"regexp"
)

// RewriteColumn rewrites every reference to oldName in source to newName,
// covering bracket access in both quote styles and mapping-literal keys in
// both quote styles (group indicators return their outputs as keyed mappings
// rather than bracket-indexing into the input).
//
// Substitution is textual and scoped to exact, escaped matches of the old
// name, so coincidental substrings like "sma_fast" survive a "sma" rename
// untouched. The source is never parsed; a rename can still corrupt code that
// uses the old name as a full quoted string for an unrelated purpose.
func RewriteColumn(source, oldName, newName string) string {
	quoted := regexp.QuoteMeta(oldName)

	rules := []struct {
		pattern     string
		replacement string
	}{
		// bracket access
		{fmt.Sprintf(`\[\s*'%s'\s*\]`, quoted), fmt.Sprintf(`['%s']`, newName)},
		{fmt.Sprintf(`\[\s*"%s"\s*\]`, quoted), fmt.Sprintf(`["%s"]`, newName)},
		// mapping literal keys
		{fmt.Sprintf(`'%s'(\s*:)`, quoted), fmt.Sprintf(`'%s'$1`, newName)},
		{fmt.Sprintf(`"%s"(\s*:)`, quoted), fmt.Sprintf(`"%s"$1`, newName)},
	}

	rewritten := source
	for _, rule := range rules {
		rewritten = regexp.MustCompile(rule.pattern).ReplaceAllString(rewritten, rule.replacement)
	}

	return rewritten
}
