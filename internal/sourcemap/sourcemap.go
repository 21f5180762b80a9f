package sourcemap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Mapping is one resolved entry of the decoded mapping table. Generated
// and original positions are 0-based. The source group (SourceFile,
// OriginalLine, OriginalColumn) is all-present or all-absent, gated by
// HasOriginal; Name is gated independently by HasName. Zero is a valid
// position, so absence is never encoded as a zero value.
type Mapping struct {
	GeneratedLine   int
	GeneratedColumn int

	SourceFile     string
	OriginalLine   int
	OriginalColumn int
	HasOriginal    bool

	Name    string
	HasName bool
}

// SourceMap is a Source Map v3 artifact as stored on disk. Keys beyond
// the recognized set are ignored.
type SourceMap struct {
	Version        int               `json:"version"`
	File           string            `json:"file"`
	SourceRoot     string            `json:"sourceRoot"`
	Sources        []string          `json:"sources"`
	SourcesContent []string          `json:"sourcesContent"`
	Names          []string          `json:"names"`
	Mappings       string            `json:"mappings"`
	Sections       []json.RawMessage `json:"sections"`
}

// Load reads and validates a source map artifact.
//
// Validation happens before JSON decoding so the common operator mistakes
// (wrong path, truncated copy, an HTML error page saved as .map) each get
// a distinct message instead of a generic parse failure.
func Load(path string) (*SourceMap, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("file is empty (0 bytes): %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("file does not start with '{' (starts with %q): not a JSON source map", firstByte(trimmed))
	}

	var sm SourceMap
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, fmt.Errorf("invalid JSON in source map file: %w", err)
	}

	if len(sm.Sections) > 0 {
		return nil, fmt.Errorf("source maps with \"sections\" are not supported")
	}

	return &sm, nil
}

func firstByte(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return string(data[:1])
}

// Parse decodes the artifact's mappings string into absolute records.
func (sm *SourceMap) Parse() []Mapping {
	return ParseMappings(sm.Mappings, sm.Sources, sm.Names)
}
