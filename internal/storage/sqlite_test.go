package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smtrace/internal/sourcemap"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleMappings() []sourcemap.Mapping {
	return []sourcemap.Mapping{
		{
			GeneratedLine:   0,
			GeneratedColumn: 4,
			SourceFile:      "src/app.js",
			OriginalLine:    2,
			OriginalColumn:  1,
			HasOriginal:     true,
			Name:            "handleClick",
			HasName:         true,
		},
		{
			// Out-of-range source index at parse time: bare record.
			GeneratedLine:   0,
			GeneratedColumn: 9,
		},
		{
			GeneratedLine:   3,
			GeneratedColumn: 0,
			SourceFile:      "src/util.js",
			OriginalLine:    0,
			OriginalColumn:  0,
			HasOriginal:     true,
		},
	}
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sm := &sourcemap.SourceMap{
		Sources: []string{"src/app.js", "src/util.js"},
		Names:   []string{"handleClick"},
	}
	mappings := sampleMappings()

	require.NoError(t, store.SaveArtifact(ctx, "/tmp/app.min.js.map", sm, mappings))

	loaded, err := store.LoadMappings(ctx, "/tmp/app.min.js.map")
	require.NoError(t, err)
	assert.Equal(t, mappings, loaded, "the index must preserve records, presence flags and emission order")
}

func TestSQLiteStore_ReindexReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sm := &sourcemap.SourceMap{Sources: []string{"a.js"}}
	require.NoError(t, store.SaveArtifact(ctx, "x.map", sm, sampleMappings()))

	shorter := sampleMappings()[:1]
	require.NoError(t, store.SaveArtifact(ctx, "x.map", sm, shorter))

	loaded, err := store.LoadMappings(ctx, "x.map")
	require.NoError(t, err)
	assert.Len(t, loaded, 1, "reindexing must not accumulate stale rows")

	infos, err := store.Artifacts(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 1, infos[0].Mappings)
}

func TestSQLiteStore_LoadUnknownArtifact(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadMappings(context.Background(), "never-indexed.map")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not indexed")
}

func TestSQLiteStore_Artifacts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveArtifact(ctx, "b.map", &sourcemap.SourceMap{Sources: []string{"s1", "s2"}, Names: []string{"n"}}, sampleMappings()))
	require.NoError(t, store.SaveArtifact(ctx, "a.map", &sourcemap.SourceMap{}, nil))

	infos, err := store.Artifacts(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "a.map", infos[0].Path)
	assert.Equal(t, "b.map", infos[1].Path)
	assert.Equal(t, 2, infos[1].Sources)
	assert.Equal(t, 1, infos[1].Names)
	assert.Equal(t, 3, infos[1].Mappings)
	assert.False(t, infos[1].IndexedAt.IsZero())
}
