package stack

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smtrace/internal/vlq"
)

func writeArtifact(t *testing.T, dir, name string, artifact map[string]any) {
	t.Helper()
	data, err := json.Marshal(artifact)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestResolver_ResolveTrace(t *testing.T) {
	dir := t.TempDir()

	// One generated line: an anonymous segment at column 0 and a named
	// one at column 10 pointing at src/app.js line 2, column 4.
	mappings := vlq.Encode(0, 0, 0, 0) + "," + vlq.Encode(10, 0, 2, 4, 0)
	writeArtifact(t, dir, "app.min.js.map", map[string]any{
		"version":  3,
		"sources":  []string{"src/app.js"},
		"names":    []string{"boom"},
		"mappings": mappings,
	})

	resolver, err := NewResolver(dir)
	require.NoError(t, err)

	trace := "TypeError: boom\n" +
		"    at t.a (https://cdn.example.com/assets/app.min.js?v=9:1:11)\n"

	lines, err := resolver.ResolveTrace(trace)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "TypeError: boom", lines[0])
	assert.Equal(t, "    at boom (src/app.js:3:5)", lines[1])
}

func TestResolver_MissingArtifact(t *testing.T) {
	resolver, err := NewResolver(t.TempDir())
	require.NoError(t, err)

	trace := "    at fn (https://cdn.example.com/ghost.min.js:1:5)"
	lines, err := resolver.ResolveTrace(trace)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
	require.Len(t, lines, 1)
	assert.Equal(t, trace, lines[0], "unresolvable frames pass through unchanged")
}

func TestResolver_MixedFrames(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "app.min.js.map", map[string]any{
		"version":  3,
		"sources":  []string{"src/app.js"},
		"names":    []string{},
		"mappings": vlq.Encode(0, 0, 0, 0),
	})

	resolver, err := NewResolver(dir)
	require.NoError(t, err)

	trace := "    at ok (https://cdn.example.com/app.min.js:1:3)\n" +
		"    at bad (https://cdn.example.com/ghost.min.js:1:3)\n"

	lines, err := resolver.ResolveTrace(trace)
	require.Error(t, err, "the missing bundle must be reported")
	require.Len(t, lines, 2)
	assert.Equal(t, "    at ok (src/app.js:1:1)", lines[0])
	assert.Equal(t, "    at bad (https://cdn.example.com/ghost.min.js:1:3)", lines[1])
}

func TestResolver_CachesParsedArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "app.min.js.map", map[string]any{
		"version":  3,
		"sources":  []string{"src/app.js"},
		"mappings": vlq.Encode(0, 0, 0, 0),
	})

	resolver, err := NewResolver(dir)
	require.NoError(t, err)

	_, err = resolver.ResolveTrace("    at fn (https://cdn.example.com/app.min.js:1:1)")
	require.NoError(t, err)

	// Deleting the artifact proves the second pass is served from cache.
	require.NoError(t, os.Remove(filepath.Join(dir, "app.min.js.map")))

	lines, err := resolver.ResolveTrace("    at fn (https://cdn.example.com/app.min.js:1:1)")
	require.NoError(t, err)
	assert.Equal(t, "    at fn (src/app.js:1:1)", lines[0])
}
