package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/plexdance/internal/plex"
	"github.com/desertthunder/plexdance/internal/shared"
)

// TrackSource is the slice of the server client a scan needs.
type TrackSource interface {
	MusicSection(ctx context.Context, name string) (*plex.Section, error)
	Tracks(ctx context.Context, sectionKey string) ([]plex.Metadata, error)
}

// Scanner fetches the music section's tracks, caches them, and reports
// directories the server has indexed inconsistently.
type Scanner struct {
	source TrackSource
	store  *Store
	logger *log.Logger
}

// NewScanner wires a track source to the cache store.
func NewScanner(source TrackSource, store *Store, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}
	return &Scanner{source: source, store: store, logger: logger}
}

// Options control where scan data comes from.
type Options struct {
	// Library names the music section; empty picks the first music section.
	Library string
	// Refresh refetches from the server even when the cache has rows.
	Refresh bool
	// CachedOnly forbids network entirely and analyzes whatever is cached.
	CachedOnly bool
}

// Scan produces a Report for the music section, fetching tracks from the
// server unless the cache already holds them.
func (s *Scanner) Scan(ctx context.Context, opts Options) (*Report, error) {
	if opts.CachedOnly {
		return s.scanCached()
	}

	section, err := s.source.MusicSection(ctx, opts.Library)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.TracksBySection(section.Key)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 || opts.Refresh {
		s.logger.Info("fetching tracks from server", "section", section.Title)
		tracks, err := s.source.Tracks(ctx, section.Key)
		if err != nil {
			return nil, err
		}
		rows = RowsFromTracks(section.Key, tracks)
		if err := s.store.Replace(section.Key, rows); err != nil {
			return nil, err
		}
		s.logger.Info("cached track listing", "rows", len(rows))
	} else {
		s.logger.Info("using cached track listing", "rows", len(rows))
	}

	report := Analyze(rows)
	report.SectionKey = section.Key
	report.SectionTitle = section.Title
	return report, nil
}

// scanCached analyzes the cache without touching the server. The cache must
// hold exactly one section; anything else needs a networked scan first.
func (s *Scanner) scanCached() (*Report, error) {
	keys, err := s.store.SectionKeys()
	if err != nil {
		return nil, err
	}

	switch len(keys) {
	case 0:
		return nil, fmt.Errorf("%w: track cache is empty, scan without --cached first", shared.ErrInvalidInput)
	case 1:
	default:
		return nil, fmt.Errorf("%w: cache holds sections %s, refresh to narrow it to one",
			shared.ErrInvalidInput, strings.Join(keys, ", "))
	}

	rows, err := s.store.TracksBySection(keys[0])
	if err != nil {
		return nil, err
	}

	report := Analyze(rows)
	report.SectionKey = keys[0]
	return report, nil
}

// RowsFromTracks flattens server track metadata into cache rows. Tracks
// without a file on disk are skipped; a multi-part track is located by its
// first file.
func RowsFromTracks(sectionKey string, tracks []plex.Metadata) []TrackRow {
	rows := make([]TrackRow, 0, len(tracks))
	for i := range tracks {
		t := &tracks[i]
		files := t.FilePaths()
		if len(files) == 0 {
			continue
		}
		rows = append(rows, TrackRow{
			SectionKey: sectionKey,
			RatingKey:  t.RatingKey,
			AlbumKey:   t.ParentRatingKey,
			Directory:  filepath.Dir(files[0]),
			Artist:     t.GrandparentTitle,
			Album:      t.ParentTitle,
			Title:      t.Title,
		})
	}
	return rows
}

// Report is everything one scan discovered.
type Report struct {
	SectionKey   string           `json:"section_key"`
	SectionTitle string           `json:"section_title,omitempty"`
	Tracks       int              `json:"tracks"`
	Directories  int              `json:"directories"`
	Albums       int              `json:"albums"`
	Mixed        []MixedDirectory `json:"mixed,omitempty"`
	Split        []SplitAlbum     `json:"split,omitempty"`
}

// Clean reports whether the scan found nothing to fix.
func (r *Report) Clean() bool {
	return len(r.Mixed) == 0 && len(r.Split) == 0
}

// MixedDirectory is one directory whose tracks the server indexed under more
// than one album.
type MixedDirectory struct {
	Directory string   `json:"directory"`
	AlbumKeys []string `json:"album_keys"`
	Tracks    int      `json:"tracks"`
}

// SplitAlbum is one album whose tracks the server located in more than one
// directory.
type SplitAlbum struct {
	AlbumKey    string   `json:"album_key"`
	Artist      string   `json:"artist"`
	Album       string   `json:"album"`
	Directories []string `json:"directories"`
	Tracks      int      `json:"tracks"`
}

// Analyze groups rows by directory and album and picks out the mismatches.
// Rows without an album key count toward totals but cannot be classified.
func Analyze(rows []TrackRow) *Report {
	byDir := make(map[string]map[string]int)
	byAlbum := make(map[string]map[string]int)
	albumNames := make(map[string]TrackRow)

	for _, row := range rows {
		if byDir[row.Directory] == nil {
			byDir[row.Directory] = make(map[string]int)
		}
		if row.AlbumKey == "" {
			continue
		}
		byDir[row.Directory][row.AlbumKey]++

		if byAlbum[row.AlbumKey] == nil {
			byAlbum[row.AlbumKey] = make(map[string]int)
			albumNames[row.AlbumKey] = row
		}
		byAlbum[row.AlbumKey][row.Directory]++
	}

	report := &Report{
		Tracks:      len(rows),
		Directories: len(byDir),
		Albums:      len(byAlbum),
	}

	for dir, albums := range byDir {
		if len(albums) < 2 {
			continue
		}
		mixed := MixedDirectory{Directory: dir}
		for key, count := range albums {
			mixed.AlbumKeys = append(mixed.AlbumKeys, key)
			mixed.Tracks += count
		}
		sort.Strings(mixed.AlbumKeys)
		report.Mixed = append(report.Mixed, mixed)
	}
	sort.Slice(report.Mixed, func(i, j int) bool {
		return report.Mixed[i].Directory < report.Mixed[j].Directory
	})

	for key, dirs := range byAlbum {
		if len(dirs) < 2 {
			continue
		}
		name := albumNames[key]
		split := SplitAlbum{AlbumKey: key, Artist: name.Artist, Album: name.Album}
		for dir, count := range dirs {
			split.Directories = append(split.Directories, dir)
			split.Tracks += count
		}
		sort.Strings(split.Directories)
		report.Split = append(report.Split, split)
	}
	sort.Slice(report.Split, func(i, j int) bool {
		a, b := &report.Split[i], &report.Split[j]
		if a.Artist != b.Artist {
			return a.Artist < b.Artist
		}
		if a.Album != b.Album {
			return a.Album < b.Album
		}
		return a.AlbumKey < b.AlbumKey
	})

	return report
}

// InputLines renders the report as dance input: one line per affected
// directory, tab-separated from the album ids involved. Directories named by
// both a mixed finding and a split finding merge their ids.
func (r *Report) InputLines() []string {
	ids := make(map[string]map[string]struct{})
	add := func(dir, key string) {
		if ids[dir] == nil {
			ids[dir] = make(map[string]struct{})
		}
		ids[dir][key] = struct{}{}
	}

	for _, m := range r.Mixed {
		for _, key := range m.AlbumKeys {
			add(m.Directory, key)
		}
	}
	for _, s := range r.Split {
		for _, dir := range s.Directories {
			add(dir, s.AlbumKey)
		}
	}

	dirs := make([]string, 0, len(ids))
	for dir := range ids {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	lines := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		keys := make([]string, 0, len(ids[dir]))
		for key := range ids[dir] {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		lines = append(lines, dir+"\t"+strings.Join(keys, ","))
	}
	return lines
}
