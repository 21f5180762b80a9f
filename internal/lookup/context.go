package lookup

import (
	"sort"

	"smtrace/internal/sourcemap"
)

// NearbyLine is one distinct original line close to a resolved mapping,
// used to show the surroundings of a hit.
type NearbyLine struct {
	Line   int    // 0-based original line
	Name   string // first name seen on that line, if any
	Target bool   // true for the hit's own line
}

// Nearby lists the distinct original lines from the hit's source file
// within radius lines of the hit, in original-line order. Returns nil
// when the hit carries no source group.
func Nearby(mappings []sourcemap.Mapping, hit sourcemap.Mapping, radius int) []NearbyLine {
	if !hit.HasOriginal {
		return nil
	}

	var near []sourcemap.Mapping
	for _, m := range mappings {
		if !m.HasOriginal || m.SourceFile != hit.SourceFile {
			continue
		}
		delta := m.OriginalLine - hit.OriginalLine
		if delta < -radius || delta > radius {
			continue
		}
		near = append(near, m)
	}

	sort.SliceStable(near, func(i, j int) bool {
		return near[i].OriginalLine < near[j].OriginalLine
	})

	seen := make(map[int]bool)
	var out []NearbyLine
	for _, m := range near {
		if seen[m.OriginalLine] {
			continue
		}
		seen[m.OriginalLine] = true

		n := NearbyLine{
			Line:   m.OriginalLine,
			Target: m.OriginalLine == hit.OriginalLine,
		}
		if m.HasName {
			n.Name = m.Name
		}
		out = append(out, n)
	}

	return out
}

// Stats summarizes which generated lines carry mappings. Used for the
// diagnostics printed when a lookup comes back empty.
type Stats struct {
	Lines   int // distinct generated lines with at least one mapping
	MinLine int
	MaxLine int
}

// Summarize computes coverage stats, or nil for an empty table.
func Summarize(mappings []sourcemap.Mapping) *Stats {
	if len(mappings) == 0 {
		return nil
	}

	lines := make(map[int]bool)
	stats := &Stats{MinLine: mappings[0].GeneratedLine, MaxLine: mappings[0].GeneratedLine}
	for _, m := range mappings {
		lines[m.GeneratedLine] = true
		if m.GeneratedLine < stats.MinLine {
			stats.MinLine = m.GeneratedLine
		}
		if m.GeneratedLine > stats.MaxLine {
			stats.MaxLine = m.GeneratedLine
		}
	}
	stats.Lines = len(lines)

	return stats
}
