package lookup

import (
	"sort"

	"smtrace/internal/sourcemap"
)

// How far Find wanders from the queried line before giving up. Minifiers
// put almost everything on a handful of lines, so a small radius is
// enough to absorb off-by-one conventions and banner comments.
const adjacentRadius = 4

// Result is the outcome of a successful lookup.
type Result struct {
	Mapping sourcemap.Mapping

	// Line is the generated line the mapping was taken from. When no
	// mapping exists on the queried line an adjacent one may be
	// substituted; Adjacent reports that so callers can surface it.
	Line     int
	Adjacent bool
}

// Find returns the best mapping for a generated position, or nil when no
// line within the search radius carries any mappings.
//
// The rule is greatest lower bound, else smallest: within the chosen
// line, the last mapping whose column is at or before the query wins; if
// the query sits before every mapping on the line, the first mapping is
// returned. The lookup never interpolates.
func Find(mappings []sourcemap.Mapping, line, column int) *Result {
	subset := onLine(mappings, line)
	used := line
	adjacent := false

	if len(subset) == 0 {
		for offset := 1; offset <= adjacentRadius; offset++ {
			if subset = onLine(mappings, line-offset); len(subset) > 0 {
				used, adjacent = line-offset, true
				break
			}
			if subset = onLine(mappings, line+offset); len(subset) > 0 {
				used, adjacent = line+offset, true
				break
			}
		}
		if len(subset) == 0 {
			return nil
		}
	}

	sort.SliceStable(subset, func(i, j int) bool {
		return subset[i].GeneratedColumn < subset[j].GeneratedColumn
	})

	var best *sourcemap.Mapping
	for i := range subset {
		if subset[i].GeneratedColumn > column {
			break
		}
		best = &subset[i]
	}
	if best == nil {
		best = &subset[0]
	}

	return &Result{Mapping: *best, Line: used, Adjacent: adjacent}
}

// FindAuto applies the stack-trace convention shim: callers usually pass
// 1-based lines while the mapping table is 0-based, so the query is tried
// decremented first and unchanged second. Use Find directly when the
// convention is known.
func FindAuto(mappings []sourcemap.Mapping, line, column int) *Result {
	if r := Find(mappings, line-1, column); r != nil {
		return r
	}
	return Find(mappings, line, column)
}

func onLine(mappings []sourcemap.Mapping, line int) []sourcemap.Mapping {
	var subset []sourcemap.Mapping
	for _, m := range mappings {
		if m.GeneratedLine == line {
			subset = append(subset, m)
		}
	}
	return subset
}
