package playlist

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/plexdance/internal/pathmap"
	"github.com/desertthunder/plexdance/internal/plex"
	"github.com/desertthunder/plexdance/internal/shared"
)

// Service is the slice of the server client a sync needs.
type Service interface {
	Identity(ctx context.Context) (*plex.MediaContainer, error)
	Tracks(ctx context.Context, sectionKey string) ([]plex.Metadata, error)
	PlaylistByTitle(ctx context.Context, title string) (*plex.Metadata, error)
	PlaylistItems(ctx context.Context, ratingKey string) ([]plex.Metadata, error)
	CreatePlaylist(ctx context.Context, machineID, title string, ids []string) (*plex.Metadata, error)
	ClearPlaylist(ctx context.Context, ratingKey string) error
	AddPlaylistItems(ctx context.Context, machineID, ratingKey string, ids []string) error
}

// Action is what a sync has to do to the named playlist.
type Action int

const (
	// ActionNone means the playlist already matches the file.
	ActionNone Action = iota
	// ActionCreate means no playlist with the name exists yet.
	ActionCreate
	// ActionRebuild means the playlist exists but its items differ.
	ActionRebuild
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "up to date"
	case ActionCreate:
		return "create"
	case ActionRebuild:
		return "rebuild"
	default:
		return "unknown"
	}
}

// Plan is a resolved sync: the desired track order and the action that makes
// the server match it.
type Plan struct {
	Name     string   `json:"name"`
	Action   Action   `json:"-"`
	TrackIDs []string `json:"track_ids"`
	Missing  []string `json:"missing,omitempty"`
	Resolved int      `json:"resolved"`
	Existing int      `json:"existing"`

	playlistKey string
}

// Syncer builds and applies playlist plans.
type Syncer struct {
	client  Service
	mapping *pathmap.Mapping
	logger  *log.Logger
}

// NewSyncer wires a server client and the path mapping local files live
// behind.
func NewSyncer(client Service, mapping *pathmap.Mapping, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}
	return &Syncer{client: client, mapping: mapping, logger: logger}
}

// Build resolves local files to indexed tracks and decides what to do. Files
// the server has no track for are reported in the plan, not fatal; a playlist
// that would end up empty is.
func (s *Syncer) Build(ctx context.Context, sectionKey, name string, files []string) (*Plan, error) {
	tracks, err := s.client.Tracks(ctx, sectionKey)
	if err != nil {
		return nil, err
	}

	byFile := make(map[string]string, len(tracks))
	for i := range tracks {
		for _, file := range tracks[i].FilePaths() {
			byFile[file] = tracks[i].RatingKey
		}
	}

	plan := &Plan{Name: name}
	for _, local := range files {
		catalog := s.mapping.ToPlex(local)
		id, ok := byFile[catalog]
		if !ok {
			plan.Missing = append(plan.Missing, local)
			continue
		}
		plan.TrackIDs = append(plan.TrackIDs, id)
	}
	plan.Resolved = len(plan.TrackIDs)

	if len(plan.TrackIDs) == 0 {
		return nil, fmt.Errorf("%w: none of the %d playlist entries are indexed by the server",
			shared.ErrInvalidInput, len(files))
	}

	existing, err := s.client.PlaylistByTitle(ctx, name)
	if errors.Is(err, shared.ErrPlaylistNotFound) {
		plan.Action = ActionCreate
		return plan, nil
	}
	if err != nil {
		return nil, err
	}

	plan.playlistKey = existing.RatingKey
	items, err := s.client.PlaylistItems(ctx, existing.RatingKey)
	if err != nil {
		return nil, err
	}
	plan.Existing = len(items)

	current := make([]string, len(items))
	for i := range items {
		current[i] = items[i].RatingKey
	}
	if equalIDs(current, plan.TrackIDs) {
		plan.Action = ActionNone
	} else {
		plan.Action = ActionRebuild
	}
	return plan, nil
}

// Apply executes the plan against the server.
func (s *Syncer) Apply(ctx context.Context, plan *Plan) error {
	if plan.Action == ActionNone {
		s.logger.Info("playlist already matches", "name", plan.Name, "tracks", len(plan.TrackIDs))
		return nil
	}

	identity, err := s.client.Identity(ctx)
	if err != nil {
		return err
	}
	machineID := identity.MachineIdentifier
	if machineID == "" {
		return fmt.Errorf("%w: server identity has no machine identifier", shared.ErrAPIRequest)
	}

	switch plan.Action {
	case ActionCreate:
		created, err := s.client.CreatePlaylist(ctx, machineID, plan.Name, plan.TrackIDs)
		if err != nil {
			return err
		}
		s.logger.Info("created playlist", "name", plan.Name, "key", created.RatingKey, "tracks", len(plan.TrackIDs))
		return nil

	case ActionRebuild:
		if err := s.client.ClearPlaylist(ctx, plan.playlistKey); err != nil {
			return err
		}
		if err := s.client.AddPlaylistItems(ctx, machineID, plan.playlistKey, plan.TrackIDs); err != nil {
			return err
		}
		s.logger.Info("rebuilt playlist", "name", plan.Name, "tracks", len(plan.TrackIDs))
		return nil
	}

	return nil
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
