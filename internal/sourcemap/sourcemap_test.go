package sourcemap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidArtifact(t *testing.T) {
	path := writeFile(t, "app.min.js.map", `{
		"version": 3,
		"file": "app.min.js",
		"sources": ["src/app.js", "src/util.js"],
		"names": ["render"],
		"mappings": "AAAA,SAASA",
		"x_extra": {"ignored": true}
	}`)

	sm, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, sm.Version)
	assert.Equal(t, []string{"src/app.js", "src/util.js"}, sm.Sources)
	assert.Equal(t, []string{"render"}, sm.Names)
	assert.Equal(t, "AAAA,SAASA", sm.Mappings)
}

func TestLoad_LeadingWhitespaceIsTolerated(t *testing.T) {
	path := writeFile(t, "pad.map", "\n\t {\"version\":3,\"mappings\":\"\"}")

	_, err := Load(path)
	assert.NoError(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.map"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeFile(t, "empty.map", "")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestLoad_NotJSON(t *testing.T) {
	// The usual failure mode: an HTML error page saved where the map
	// should be.
	path := writeFile(t, "error.map", "<html><body>404</body></html>")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not start with '{'")
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeFile(t, "broken.map", `{"version": 3, "mappings": `)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestLoad_SectionedMapsRejected(t *testing.T) {
	path := writeFile(t, "sections.map", `{"version": 3, "sections": [{"offset": {"line": 0, "column": 0}}]}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sections")
}

func TestSourceMap_Parse(t *testing.T) {
	sm := &SourceMap{
		Sources:  []string{"src/app.js"},
		Names:    []string{"main"},
		Mappings: "AAAAA",
	}

	result := sm.Parse()
	require.Len(t, result, 1)
	assert.True(t, result[0].HasOriginal)
	assert.Equal(t, "src/app.js", result[0].SourceFile)
	assert.True(t, result[0].HasName)
	assert.Equal(t, "main", result[0].Name)
}
