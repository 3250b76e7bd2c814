package dance

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/desertthunder/plexdance/internal/pathmap"
)

func TestSanitizeComponent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain ascii", "Abbey Road", "Abbey Road"},
		{"slash replaced", "AC/DC", "AC_DC"},
		{"punctuation replaced", "What's Going On?", "What_s Going On_"},
		{"keeps safe set", "OK.-_ name", "OK.-_ name"},
		{"unicode letters survive", "Sigur Rós", "Sigur Rós"},
		{"cjk survives", "日本語タイトル", "日本語タイトル"},
		{"colon and star", "a:b*c", "a_b_c"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeComponent(tt.input); got != tt.want {
				t.Errorf("sanitizeComponent(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"under limit", "abc", 10, "abc"},
		{"exact limit", "abc", 3, "abc"},
		{"ascii cut", "abcdef", 4, "abcd"},
		{"multibyte boundary", "ééé", 3, "é"},
		{"multibyte clean cut", "ééé", 4, "éé"},
		{"zero budget", "abc", 0, ""},
		{"negative budget", "abc", -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateUTF8(tt.input, tt.max)
			if got != tt.want {
				t.Errorf("truncateUTF8(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncateUTF8(%q, %d) produced invalid UTF-8", tt.input, tt.max)
			}
		})
	}
}

func TestStagingName(t *testing.T) {
	t.Run("short name passes through", func(t *testing.T) {
		got := stagingName(0, "Artist", "Album")
		if got != "0_Artist_Album" {
			t.Errorf("stagingName = %q, want %q", got, "0_Artist_Album")
		}
	})

	t.Run("sanitizes both components", func(t *testing.T) {
		got := stagingName(3, "AC/DC", "Back in Black!")
		if got != "3_AC_DC_Back in Black_" {
			t.Errorf("stagingName = %q, want %q", got, "3_AC_DC_Back in Black_")
		}
	})

	t.Run("long name fits byte ceiling", func(t *testing.T) {
		artist := strings.Repeat("a", 300)
		album := strings.Repeat("b", 300)
		got := stagingName(7, artist, album)
		if len(got) > maxNameBytes {
			t.Fatalf("stagingName length = %d, want <= %d", len(got), maxNameBytes)
		}
		// Budget after "7_" and one separator splits evenly: 126 + 126.
		want := "7_" + strings.Repeat("a", 126) + "_" + strings.Repeat("b", 126)
		if got != want {
			t.Errorf("stagingName = %q, want %q", got, want)
		}
	})

	t.Run("long multibyte name stays valid utf-8", func(t *testing.T) {
		artist := strings.Repeat("é", 200)
		album := strings.Repeat("ü", 200)
		got := stagingName(12, artist, album)
		if len(got) > maxNameBytes {
			t.Errorf("stagingName length = %d, want <= %d", len(got), maxNameBytes)
		}
		if !utf8.ValidString(got) {
			t.Error("stagingName produced invalid UTF-8")
		}
		if !strings.HasPrefix(got, "12_") {
			t.Errorf("stagingName = %q, want prefix %q", got, "12_")
		}
	})
}

func TestPlannerPlan(t *testing.T) {
	p := &Planner{LibraryRoots: []string{"/data/music", "/data/flac"}}

	inputs := []InputEntry{
		{CatalogPath: "/data/music/Artist One/Album A", CatalogIDs: []string{"11"}},
		{CatalogPath: "/data/music/Artist Two/Album B"},
		{CatalogPath: "/data/flac/Artist Three/Album C", CatalogIDs: []string{"31", "32"}},
	}

	groups := p.Plan(inputs)

	// /data/music and /data/flac share the parent /data, so one staging root.
	if len(groups) != 1 {
		t.Fatalf("Plan() groups = %d, want 1", len(groups))
	}
	g := groups[0]
	if g.StagingDir != filepath.Join("/data", StagingDirName) {
		t.Errorf("StagingDir = %q, want %q", g.StagingDir, filepath.Join("/data", StagingDirName))
	}
	if len(g.Entries) != 3 {
		t.Fatalf("group entries = %d, want 3", len(g.Entries))
	}

	first := g.Entries[0]
	if first.Index != 0 {
		t.Errorf("first entry index = %d, want 0", first.Index)
	}
	if first.StagingPath != filepath.Join(g.StagingDir, "0_Artist One_Album A") {
		t.Errorf("StagingPath = %q", first.StagingPath)
	}
	if first.CompanionPath != "/data/music/Artist One/._Album A" {
		t.Errorf("CompanionPath = %q", first.CompanionPath)
	}
	if first.StagingCompanionPath != filepath.Join(g.StagingDir, "._0_Artist One_Album A") {
		t.Errorf("StagingCompanionPath = %q", first.StagingCompanionPath)
	}
	if first.State != Pending {
		t.Errorf("State = %v, want Pending", first.State)
	}

	third := g.Entries[2]
	if third.Index != 2 {
		t.Errorf("third entry index = %d, want 2", third.Index)
	}
	if len(third.CatalogIDs) != 2 {
		t.Errorf("third entry ids = %v, want two", third.CatalogIDs)
	}
}

func TestPlannerPlanSeparateParents(t *testing.T) {
	p := &Planner{LibraryRoots: []string{"/mnt/a/music", "/srv/b/music"}}

	groups := p.Plan([]InputEntry{
		{CatalogPath: "/mnt/a/music/X/One"},
		{CatalogPath: "/srv/b/music/Y/Two"},
	})

	if len(groups) != 2 {
		t.Fatalf("Plan() groups = %d, want 2", len(groups))
	}
	if groups[0].StagingDir != filepath.Join("/mnt/a", StagingDirName) {
		t.Errorf("first StagingDir = %q", groups[0].StagingDir)
	}
	if groups[1].StagingDir != filepath.Join("/srv/b", StagingDirName) {
		t.Errorf("second StagingDir = %q", groups[1].StagingDir)
	}
	// Indexes stay global across groups so staging names never collide.
	if groups[1].Entries[0].Index != 1 {
		t.Errorf("second group entry index = %d, want 1", groups[1].Entries[0].Index)
	}
}

func TestPlannerPlanWithMapping(t *testing.T) {
	m, err := pathmap.Parse("/local/music:/plex/music")
	if err != nil {
		t.Fatal(err)
	}
	p := &Planner{Mapping: m, LibraryRoots: []string{"/plex/music"}}

	groups := p.Plan([]InputEntry{{CatalogPath: "/plex/music/Artist/Album"}})
	if len(groups) != 1 {
		t.Fatalf("Plan() groups = %d, want 1", len(groups))
	}
	e := groups[0].Entries[0]
	if e.LocalPath != "/local/music/Artist/Album" {
		t.Errorf("LocalPath = %q, want mapped local path", e.LocalPath)
	}
	if e.CatalogPath != "/plex/music/Artist/Album" {
		t.Errorf("CatalogPath = %q, want server path preserved", e.CatalogPath)
	}
	if groups[0].StagingDir != filepath.Join("/local", StagingDirName) {
		t.Errorf("StagingDir = %q, want local-side staging dir", groups[0].StagingDir)
	}
}

func TestLibraryRootFor(t *testing.T) {
	p := &Planner{LibraryRoots: []string{"/music", "/music/flac"}}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"nearest nested root wins", "/music/flac/A/B", "/music/flac"},
		{"outer root", "/music/A/B", "/music"},
		{"segment boundary not matched", "/music2/A/B", "/music2/A"},
		{"outside all roots falls back to parent", "/video/A/B", "/video/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.libraryRootFor(tt.path); got != tt.want {
				t.Errorf("libraryRootFor(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestPlannerValidate(t *testing.T) {
	tmp := t.TempDir()
	album := filepath.Join(tmp, "music", "Artist", "Album")
	if err := os.MkdirAll(album, 0o755); err != nil {
		t.Fatal(err)
	}
	plainFile := filepath.Join(tmp, "music", "notes.txt")
	if err := os.WriteFile(plainFile, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &Planner{LibraryRoots: []string{filepath.Join(tmp, "music")}}

	inputs := []InputEntry{
		{CatalogPath: album},
		{CatalogPath: filepath.Join(tmp, "video", "Movie")},
		{CatalogPath: filepath.Join(tmp, "music", "Artist", "Missing")},
		{CatalogPath: plainFile},
	}

	valid, excluded := p.Validate(inputs)

	if len(valid) != 1 || valid[0].CatalogPath != album {
		t.Fatalf("Validate() valid = %v, want only the existing album", valid)
	}
	if len(excluded) != 3 {
		t.Fatalf("Validate() excluded = %d, want 3", len(excluded))
	}

	reasons := map[string]string{}
	for _, ex := range excluded {
		if ex.State != Failed {
			t.Errorf("excluded entry %q state = %v, want Failed", ex.CatalogPath, ex.State)
		}
		reasons[ex.CatalogPath] = ex.Reason
	}
	if !strings.Contains(reasons[filepath.Join(tmp, "video", "Movie")], "outside") {
		t.Errorf("outside-library reason = %q", reasons[filepath.Join(tmp, "video", "Movie")])
	}
	if !strings.Contains(reasons[filepath.Join(tmp, "music", "Artist", "Missing")], "does not exist") {
		t.Errorf("missing-path reason = %q", reasons[filepath.Join(tmp, "music", "Artist", "Missing")])
	}
	if !strings.Contains(reasons[plainFile], "not a directory") {
		t.Errorf("non-directory reason = %q", reasons[plainFile])
	}
}

func TestPlannerValidateNoRoots(t *testing.T) {
	tmp := t.TempDir()
	album := filepath.Join(tmp, "Artist", "Album")
	if err := os.MkdirAll(album, 0o755); err != nil {
		t.Fatal(err)
	}

	// Without known library locations only existence is checked.
	p := &Planner{}
	valid, excluded := p.Validate([]InputEntry{{CatalogPath: album}})
	if len(valid) != 1 || len(excluded) != 0 {
		t.Errorf("Validate() = %d valid, %d excluded; want 1, 0", len(valid), len(excluded))
	}
}

func TestCompanionFor(t *testing.T) {
	got := companionFor("/music/Artist/Album")
	if got != "/music/Artist/._Album" {
		t.Errorf("companionFor = %q, want %q", got, "/music/Artist/._Album")
	}
}
