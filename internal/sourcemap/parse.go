package sourcemap

import (
	"strings"

	"smtrace/internal/vlq"
)

// ParseMappings walks the delta-encoded mappings string and reconstructs
// absolute records.
//
// The string is semicolon-delimited into generated lines and
// comma-delimited into segments. Each segment encodes deltas against six
// running totals. Only the generated column resets at a line boundary;
// the source index, original line, original column and name index
// accumulate across the entire string. Resetting them per line is the
// classic reimplementation bug and breaks every mapping after the first
// semicolon.
func ParseMappings(mappings string, sources, names []string) []Mapping {
	var result []Mapping

	generatedLine := 0
	generatedColumn := 0
	sourceIndex := 0
	originalLine := 0
	originalColumn := 0
	nameIndex := 0

	for _, group := range strings.Split(mappings, ";") {
		// A line with no segments still occupies a generated line.
		generatedColumn = 0

		for _, segment := range strings.Split(group, ",") {
			if segment == "" {
				continue
			}

			fields := vlq.Decode(segment)

			if len(fields) >= 1 {
				generatedColumn += fields[0]
			}

			m := Mapping{
				GeneratedLine:   generatedLine,
				GeneratedColumn: generatedColumn,
			}

			if len(fields) >= 4 {
				// The totals advance even when the index lands out of
				// range: later segments are deltas against this total,
				// so skipping the update would corrupt the rest of the
				// stream.
				sourceIndex += fields[1]
				originalLine += fields[2]
				originalColumn += fields[3]

				if sourceIndex >= 0 && sourceIndex < len(sources) {
					m.SourceFile = sources[sourceIndex]
					m.OriginalLine = originalLine
					m.OriginalColumn = originalColumn
					m.HasOriginal = true
				}
			}

			if len(fields) >= 5 {
				nameIndex += fields[4]
				if nameIndex >= 0 && nameIndex < len(names) {
					m.Name = names[nameIndex]
					m.HasName = true
				}
			}

			// Segments with 2 or 3 fields are malformed per the format,
			// but the decoder's lenient policy applies here too: the
			// record is emitted with only its generated position.
			result = append(result, m)
		}

		generatedLine++
	}

	return result
}
