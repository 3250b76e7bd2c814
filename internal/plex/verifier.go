package plex

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/plexdance/internal/shared"
)

// Verifier answers the engine's "does the server still list this?" questions
// against a live Plex server. Paths in and out are in the server's namespace.
type Verifier struct {
	client     *Client
	sectionKey string
	logger     *log.Logger
}

// NewVerifier wires a client to the music section the dance targets.
func NewVerifier(client *Client, sectionKey string, logger *log.Logger) *Verifier {
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}
	return &Verifier{client: client, sectionKey: sectionKey, logger: logger}
}

// IsVisible reports whether any of the ids still resolves on the server. A
// 404 means the item left the index; anything else is a transient failure the
// caller retries next round.
func (v *Verifier) IsVisible(ctx context.Context, path string, ids []string) (bool, error) {
	for _, id := range ids {
		_, err := v.client.MetadataByID(ctx, id)
		if err == nil {
			return true, nil
		}
		if errors.Is(err, shared.ErrNotFound) {
			continue
		}
		return false, err
	}

	v.logger.Debug("server no longer lists directory", "path", path)
	return false, nil
}

// ListIndexedDirectories returns every directory holding at least one indexed
// track, deduplicated, in the server's namespace. This is the fallback for
// entries without ids and costs a full section listing per call.
func (v *Verifier) ListIndexedDirectories(ctx context.Context) ([]string, error) {
	tracks, err := v.client.Tracks(ctx, v.sectionKey)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var dirs []string
	for i := range tracks {
		for _, file := range tracks[i].FilePaths() {
			dir := filepath.Dir(file)
			if _, ok := seen[dir]; ok {
				continue
			}
			seen[dir] = struct{}{}
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}
