package storage

import (
	"context"
	"time"

	"smtrace/internal/sourcemap"
)

// ArtifactInfo describes one indexed source map.
type ArtifactInfo struct {
	Path      string
	Sources   int
	Names     int
	Mappings  int
	IndexedAt time.Time
}

// Store persists parsed mapping tables between runs so large artifacts
// are not reparsed on every query. The in-memory path stays the default;
// a store is only consulted when the caller asks for it.
type Store interface {
	// SaveArtifact replaces any previously indexed table for path.
	SaveArtifact(ctx context.Context, path string, sm *sourcemap.SourceMap, mappings []sourcemap.Mapping) error

	// LoadMappings returns the indexed table for path, in emission order.
	LoadMappings(ctx context.Context, path string) ([]sourcemap.Mapping, error)

	// Artifacts lists everything in the index.
	Artifacts(ctx context.Context) ([]ArtifactInfo, error)

	Close() error
}
