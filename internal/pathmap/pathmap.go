// Package pathmap translates paths between the Plex server's view of the
// music library and the local filesystem. The dance maps server paths to
// local ones before renaming; playlist sync maps the other way, with the
// same mapping value.
package pathmap

import (
	"fmt"
	"strings"

	"github.com/desertthunder/plexdance/internal/shared"
)

// Mapping is a single prefix substitution between the local filesystem
// namespace and the server namespace.
type Mapping struct {
	LocalRoot string
	PlexRoot  string
}

// Parse reads the "local_root:plex_root" flag syntax. Both components must
// be non-empty and the value must contain exactly one colon. An empty string
// parses to a nil mapping, meaning both sides see identical paths.
func Parse(s string) (*Mapping, error) {
	if s == "" {
		return nil, nil
	}

	local, plex, ok := strings.Cut(s, ":")
	if !ok || local == "" || plex == "" || strings.Contains(plex, ":") {
		return nil, fmt.Errorf("%w: %q (want \"local_root:plex_root\")", shared.ErrInvalidMapping, s)
	}

	return &Mapping{LocalRoot: trimRoot(local), PlexRoot: trimRoot(plex)}, nil
}

// ToLocal maps a server-namespace path onto the local filesystem. Paths not
// under PlexRoot pass through unchanged, as does everything when m is nil.
func (m *Mapping) ToLocal(path string) string {
	if m == nil {
		return path
	}
	return substitute(path, m.PlexRoot, m.LocalRoot)
}

// ToPlex maps a local path into the server namespace.
func (m *Mapping) ToPlex(path string) string {
	if m == nil {
		return path
	}
	return substitute(path, m.LocalRoot, m.PlexRoot)
}

func (m *Mapping) String() string {
	if m == nil {
		return "(none)"
	}
	return m.LocalRoot + ":" + m.PlexRoot
}

// WithinRoot reports whether path equals root or sits beneath it. The match
// honors segment boundaries, so root "/music" never captures "/music2/x".
func WithinRoot(root, path string) bool {
	root = trimRoot(root)
	if path == root {
		return true
	}
	return strings.HasPrefix(path, withSep(root))
}

// substitute replaces the leading root only at a path-segment boundary.
func substitute(path, from, to string) string {
	if path == from {
		return to
	}
	rest, ok := strings.CutPrefix(path, withSep(from))
	if !ok {
		return path
	}
	return withSep(to) + rest
}

// trimRoot drops trailing separators but keeps "/" itself intact.
func trimRoot(p string) string {
	if trimmed := strings.TrimRight(p, "/"); trimmed != "" {
		return trimmed
	}
	return "/"
}

func withSep(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}
