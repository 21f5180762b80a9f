package stack

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru/v2"

	"smtrace/internal/lookup"
	"smtrace/internal/sourcemap"
)

// Traces rarely reference more than a handful of bundles; the cache just
// has to absorb repeated frames from the same bundle.
const cacheSize = 16

// Resolver rewrites stack-trace frames to original source locations,
// finding each bundle's .map artifact in a single directory.
type Resolver struct {
	dir   string
	cache *lru.Cache[string, []sourcemap.Mapping]
}

// NewResolver creates a resolver that looks for <bundle basename>.map
// files under dir.
func NewResolver(dir string) (*Resolver, error) {
	cache, err := lru.New[string, []sourcemap.Mapping](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Resolver{dir: dir, cache: cache}, nil
}

// ResolveTrace resolves every parseable frame of a trace and returns the
// rewritten lines. Per-frame failures (missing map, no mapping in range)
// leave the frame untouched and are aggregated into the returned error;
// a non-nil error does not mean the rewrite failed as a whole.
func (r *Resolver) ResolveTrace(text string) ([]string, error) {
	var errs *multierror.Error
	var out []string

	for _, frame := range ParseTrace(text) {
		if !frame.Parsed {
			out = append(out, frame.Raw)
			continue
		}

		mappings, err := r.mappingsFor(frame.File)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("frame %q: %w", strings.TrimSpace(frame.Raw), err))
			out = append(out, frame.Raw)
			continue
		}

		result := lookup.FindAuto(mappings, frame.Line, frame.Column)
		if result == nil || !result.Mapping.HasOriginal {
			errs = multierror.Append(errs, fmt.Errorf("frame %q: no mapping for line %d column %d", strings.TrimSpace(frame.Raw), frame.Line, frame.Column))
			out = append(out, frame.Raw)
			continue
		}

		out = append(out, rewriteFrame(frame, result.Mapping))
	}

	return out, errs.ErrorOrNil()
}

func (r *Resolver) mappingsFor(file string) ([]sourcemap.Mapping, error) {
	mapPath := r.mapPath(file)
	if cached, ok := r.cache.Get(mapPath); ok {
		return cached, nil
	}

	sm, err := sourcemap.Load(mapPath)
	if err != nil {
		return nil, err
	}

	mappings := sm.Parse()
	r.cache.Add(mapPath, mappings)
	return mappings, nil
}

// mapPath maps a bundle URL to its artifact: the URL's base name with a
// .map suffix, inside the resolver's directory. Query strings from
// cache-busted URLs are stripped.
func (r *Resolver) mapPath(file string) string {
	base := path.Base(file)
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}
	return filepath.Join(r.dir, base+".map")
}

// rewriteFrame renders a resolved frame in V8 style, converting the
// 0-based original position to the 1-based display convention.
func rewriteFrame(frame Frame, m sourcemap.Mapping) string {
	indent := frame.Raw[:len(frame.Raw)-len(strings.TrimLeft(frame.Raw, " \t"))]

	name := frame.Function
	if m.HasName {
		name = m.Name
	}

	location := fmt.Sprintf("%s:%d:%d", m.SourceFile, m.OriginalLine+1, m.OriginalColumn+1)
	if name == "" {
		return fmt.Sprintf("%sat %s", indent, location)
	}
	return fmt.Sprintf("%sat %s (%s)", indent, name, location)
}
