// Package pathmap translates logical "virtual" paths into real filesystem
// paths and back. Tools address files through virtual roots so a document can
// move between machines without rewriting every path it mentions.
//
// Mappings are matched by longest virtual-root prefix. The mapping spec is a
// semicolon-separated list of "virtual:real" pairs, typically from the
// DOMARK_FS_MAP environment variable.
package pathmap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"domark/internal/logging"
)

// ErrNoMapping is returned when a path matches no configured root.
var ErrNoMapping = errors.New("no path mapping for path")

// Mapping is one virtual-root to real-root pair.
type Mapping struct {
	Virtual string
	Real    string
}

// Resolver holds the mapping table. It is loaded once at startup and safe
// for concurrent reads; Reload swaps the whole table atomically.
type Resolver struct {
	mu            sync.RWMutex
	virtualToReal map[string]string
	realToVirtual map[string]string

	// Roots sorted by length descending, for longest-prefix matching.
	virtualRoots []string
	realRoots    []string
}

// New creates a resolver from explicit mappings.
func New(mappings []Mapping) *Resolver {
	r := &Resolver{}
	r.install(mappings)
	return r
}

// FromSpec parses a "virtual:real;virtual:real" spec string. When tmpDir is
// non-empty and /tmp is not already mapped, a default /tmp mapping is added.
// Malformed entries are skipped with a warning, not an error.
func FromSpec(spec, tmpDir string) *Resolver {
	r := &Resolver{}
	r.install(parseSpec(spec, tmpDir))
	return r
}

// Reload replaces the mapping table from a new spec string.
func (r *Resolver) Reload(spec, tmpDir string) {
	r.install(parseSpec(spec, tmpDir))
	logging.Paths("path map reloaded: %d mappings", len(r.Mappings()))
}

func parseSpec(spec, tmpDir string) []Mapping {
	var mappings []Mapping
	seen := make(map[string]bool)

	for _, pair := range strings.Split(spec, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			fmt.Fprintf(os.Stderr, "Warning: malformed path mapping entry (missing colon) %q, skipping\n", pair)
			continue
		}
		virtual := strings.TrimSpace(parts[0])
		real := strings.TrimSpace(parts[1])
		if virtual == "" || real == "" {
			fmt.Fprintf(os.Stderr, "Warning: malformed path mapping entry (empty path) %q, skipping\n", pair)
			continue
		}
		virtual = normalize(virtual)
		real = normalize(real)
		if seen[virtual] {
			fmt.Fprintf(os.Stderr, "Warning: duplicate virtual root %q, overwriting\n", virtual)
		}
		seen[virtual] = true
		mappings = append(mappings, Mapping{Virtual: virtual, Real: real})
	}

	if tmpDir != "" && !seen["/tmp"] {
		mappings = append(mappings, Mapping{Virtual: "/tmp", Real: normalize(tmpDir)})
	}

	return mappings
}

func (r *Resolver) install(mappings []Mapping) {
	v2r := make(map[string]string, len(mappings))
	r2v := make(map[string]string, len(mappings))
	for _, m := range mappings {
		v2r[m.Virtual] = m.Real
		r2v[m.Real] = m.Virtual
	}

	vRoots := make([]string, 0, len(v2r))
	for root := range v2r {
		vRoots = append(vRoots, root)
	}
	rRoots := make([]string, 0, len(r2v))
	for root := range r2v {
		rRoots = append(rRoots, root)
	}
	// Longest root first so /a/b wins over /a.
	sort.Slice(vRoots, func(i, j int) bool { return len(vRoots[i]) > len(vRoots[j]) })
	sort.Slice(rRoots, func(i, j int) bool { return len(rRoots[i]) > len(rRoots[j]) })

	r.mu.Lock()
	r.virtualToReal = v2r
	r.realToVirtual = r2v
	r.virtualRoots = vRoots
	r.realRoots = rRoots
	r.mu.Unlock()
}

// normalize makes a path absolute and clean, without a trailing separator
// except for the root itself.
func normalize(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return filepath.Clean(abs)
}

// Resolve translates a virtual path into a real one.
// Relative paths are anchored at the matching virtual root.
func (r *Resolver) Resolve(virtual string) (string, error) {
	if virtual == "" {
		return "", fmt.Errorf("%w: empty path", ErrNoMapping)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	normalized := normalize(virtual)
	for _, root := range r.virtualRoots {
		candidate := normalized
		if !filepath.IsAbs(virtual) {
			candidate = normalize(filepath.Join(root, virtual))
		}

		if candidate == root {
			return r.virtualToReal[root], nil
		}
		if strings.HasPrefix(candidate, root+string(filepath.Separator)) {
			rel := strings.TrimPrefix(candidate[len(root):], string(filepath.Separator))
			resolved := normalize(filepath.Join(r.virtualToReal[root], rel))
			logging.PathsDebug("resolved %q -> %q", virtual, resolved)
			return resolved, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNoMapping, virtual)
}

// Virtualize translates a real path back into its virtual form.
// Returns false when no real root covers the path.
func (r *Resolver) Virtualize(real string) (string, bool) {
	if real == "" {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	normalized := normalize(real)
	for _, root := range r.realRoots {
		if normalized == root {
			return r.realToVirtual[root], true
		}
		if strings.HasPrefix(normalized, root+string(filepath.Separator)) {
			rel := strings.TrimPrefix(normalized[len(root):], string(filepath.Separator))
			return normalize(filepath.Join(r.realToVirtual[root], rel)), true
		}
	}

	return "", false
}

// RewriteDisplay replaces every occurrence of a known real root in s with
// its virtual equivalent. Used on tool output before it is written back into
// the document, so the transcript never leaks machine-local paths.
func (r *Resolver) RewriteDisplay(s string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, root := range r.realRoots {
		if strings.Contains(s, root) {
			s = strings.ReplaceAll(s, root, r.realToVirtual[root])
		}
	}
	return s
}

// Mappings returns a snapshot of the current table, longest virtual root first.
func (r *Resolver) Mappings() []Mapping {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Mapping, 0, len(r.virtualRoots))
	for _, root := range r.virtualRoots {
		out = append(out, Mapping{Virtual: root, Real: r.virtualToReal[root]})
	}
	return out
}
