package catalog

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/desertthunder/plexdance/internal/plex"
	"github.com/desertthunder/plexdance/internal/shared"
)

type fakeSource struct {
	section *plex.Section
	tracks  []plex.Metadata

	sectionErr error
	tracksErr  error

	sectionCalls int
	trackCalls   int
}

func (f *fakeSource) MusicSection(ctx context.Context, name string) (*plex.Section, error) {
	f.sectionCalls++
	if f.sectionErr != nil {
		return nil, f.sectionErr
	}
	return f.section, nil
}

func (f *fakeSource) Tracks(ctx context.Context, sectionKey string) ([]plex.Metadata, error) {
	f.trackCalls++
	if f.tracksErr != nil {
		return nil, f.tracksErr
	}
	return f.tracks, nil
}

func track(ratingKey, albumKey, artist, album, title, file string) plex.Metadata {
	return plex.Metadata{
		RatingKey:        ratingKey,
		ParentRatingKey:  albumKey,
		GrandparentTitle: artist,
		ParentTitle:      album,
		Title:            title,
		Media:            []plex.Media{{Part: []plex.Part{{File: file}}}},
	}
}

func TestScannerScan(t *testing.T) {
	logger := shared.NewLogger(io.Discard)
	source := &fakeSource{
		section: &plex.Section{Key: "5", Title: "Music", Type: "artist"},
		tracks: []plex.Metadata{
			track("101", "11", "A", "a", "One", "/data/music/A/a/01.flac"),
			track("102", "12", "B", "b", "Two", "/data/music/A/a/02.flac"),
		},
	}
	store := newTestStore(t)
	scanner := NewScanner(source, store, logger)

	report, err := scanner.Scan(context.Background(), Options{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if source.trackCalls != 1 {
		t.Errorf("expected one fetch, got %d", source.trackCalls)
	}
	if report.SectionTitle != "Music" || report.Tracks != 2 {
		t.Errorf("unexpected report %+v", report)
	}
	if len(report.Mixed) != 1 {
		t.Fatalf("expected the shared directory flagged as mixed, got %+v", report.Mixed)
	}

	t.Run("Second Scan Uses Cache", func(t *testing.T) {
		report, err := scanner.Scan(context.Background(), Options{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if source.trackCalls != 1 {
			t.Errorf("expected no refetch, got %d calls", source.trackCalls)
		}
		if report.Tracks != 2 {
			t.Errorf("expected cached rows analyzed, got %+v", report)
		}
	})

	t.Run("Refresh Refetches", func(t *testing.T) {
		source.tracks = source.tracks[:1]
		_, err := scanner.Scan(context.Background(), Options{Refresh: true})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if source.trackCalls != 2 {
			t.Errorf("expected a refetch, got %d calls", source.trackCalls)
		}

		rows, _ := store.TracksBySection("5")
		if len(rows) != 1 {
			t.Errorf("expected cache swapped to 1 row, got %d", len(rows))
		}
	})

	t.Run("Cached Only Skips Network", func(t *testing.T) {
		calls := source.sectionCalls
		report, err := scanner.Scan(context.Background(), Options{CachedOnly: true})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if source.sectionCalls != calls {
			t.Error("expected no section lookup in cached mode")
		}
		if report.SectionKey != "5" || report.Tracks != 1 {
			t.Errorf("unexpected report %+v", report)
		}
	})
}

func TestScannerScanCachedEmpty(t *testing.T) {
	scanner := NewScanner(&fakeSource{}, newTestStore(t), shared.NewLogger(io.Discard))

	_, err := scanner.Scan(context.Background(), Options{CachedOnly: true})
	if !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty cache, got %v", err)
	}
}

func TestScannerScanSectionError(t *testing.T) {
	source := &fakeSource{sectionErr: shared.ErrSectionNotFound}
	scanner := NewScanner(source, newTestStore(t), shared.NewLogger(io.Discard))

	_, err := scanner.Scan(context.Background(), Options{Library: "Nope"})
	if !errors.Is(err, shared.ErrSectionNotFound) {
		t.Errorf("expected section error to propagate, got %v", err)
	}
}

func TestRowsFromTracks(t *testing.T) {
	tracks := []plex.Metadata{
		track("101", "11", "Artist", "Album", "One", "/data/music/Artist/Album/01.flac"),
		{RatingKey: "102", ParentRatingKey: "11"},
		{
			RatingKey:       "103",
			ParentRatingKey: "12",
			Media: []plex.Media{
				{Part: []plex.Part{{File: "/data/music/X/x/01.flac"}, {File: "/data/music/Y/y/01.flac"}}},
			},
		},
	}

	rows := RowsFromTracks("5", tracks)
	if len(rows) != 2 {
		t.Fatalf("expected fileless track skipped, got %d rows", len(rows))
	}
	if rows[0].Directory != "/data/music/Artist/Album" || rows[0].Artist != "Artist" {
		t.Errorf("unexpected row %+v", rows[0])
	}
	if rows[1].Directory != "/data/music/X/x" {
		t.Errorf("expected first part to locate the track, got %+v", rows[1])
	}
}

func TestAnalyze(t *testing.T) {
	row := func(ratingKey, albumKey, dir string) TrackRow {
		return TrackRow{RatingKey: ratingKey, AlbumKey: albumKey, Directory: dir, Artist: "Art", Album: "Alb"}
	}

	t.Run("Clean Library", func(t *testing.T) {
		report := Analyze([]TrackRow{
			row("1", "11", "/m/A/a"),
			row("2", "11", "/m/A/a"),
			row("3", "12", "/m/B/b"),
		})
		if !report.Clean() {
			t.Errorf("expected clean report, got %+v", report)
		}
		if report.Tracks != 3 || report.Directories != 2 || report.Albums != 2 {
			t.Errorf("unexpected totals %+v", report)
		}
	})

	t.Run("Mixed Directory", func(t *testing.T) {
		report := Analyze([]TrackRow{
			row("1", "11", "/m/A/a"),
			row("2", "12", "/m/A/a"),
		})
		if len(report.Mixed) != 1 {
			t.Fatalf("expected one mixed directory, got %+v", report.Mixed)
		}
		m := report.Mixed[0]
		if m.Directory != "/m/A/a" || m.Tracks != 2 {
			t.Errorf("unexpected mixed entry %+v", m)
		}
		if len(m.AlbumKeys) != 2 || m.AlbumKeys[0] != "11" || m.AlbumKeys[1] != "12" {
			t.Errorf("expected sorted album keys, got %v", m.AlbumKeys)
		}
	})

	t.Run("Split Album", func(t *testing.T) {
		report := Analyze([]TrackRow{
			row("1", "11", "/m/A/a"),
			row("2", "11", "/m/A/a (1)"),
		})
		if len(report.Split) != 1 {
			t.Fatalf("expected one split album, got %+v", report.Split)
		}
		s := report.Split[0]
		if s.AlbumKey != "11" || s.Tracks != 2 {
			t.Errorf("unexpected split entry %+v", s)
		}
		if len(s.Directories) != 2 {
			t.Errorf("expected both directories, got %v", s.Directories)
		}
	})

	t.Run("Missing Album Key Skipped From Grouping", func(t *testing.T) {
		report := Analyze([]TrackRow{
			row("1", "", "/m/A/a"),
			row("2", "11", "/m/A/a"),
		})
		if !report.Clean() {
			t.Errorf("expected unclassifiable row ignored, got %+v", report)
		}
		if report.Tracks != 2 || report.Albums != 1 {
			t.Errorf("unexpected totals %+v", report)
		}
	})
}

func TestReportInputLines(t *testing.T) {
	report := &Report{
		Mixed: []MixedDirectory{
			{Directory: "/m/B/b", AlbumKeys: []string{"12", "13"}},
		},
		Split: []SplitAlbum{
			{AlbumKey: "12", Directories: []string{"/m/A/a", "/m/B/b"}},
		},
	}

	lines := report.InputLines()
	want := []string{
		"/m/A/a\t12",
		"/m/B/b\t12,13",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %v", len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}

	for _, line := range lines {
		if !strings.Contains(line, "\t") {
			t.Errorf("expected tab-separated line, got %q", line)
		}
	}
}
