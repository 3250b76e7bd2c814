package dance

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/desertthunder/plexdance/internal/pathmap"
)

const (
	// StagingDirName is the directory created beside each library root to
	// hold relocated albums for the duration of a run.
	StagingDirName = "tmp.plexdance"

	// LockFileName marks a staging root as owned by a running process.
	LockFileName = "lock"

	// RecoveryLogName is the executable restore script written into each
	// staging root before any rename happens under it.
	RecoveryLogName = "restore.log"

	// companionPrefix marks AppleDouble sidecar files paired by basename.
	companionPrefix = "._"

	// maxNameBytes is the common filesystem ceiling for one path component.
	maxNameBytes = 255
)

// Planner computes where each input directory goes during staging. It groups
// entries by the staging root they share and assigns collision-free,
// human-readable staging names.
type Planner struct {
	Mapping      *pathmap.Mapping // nil when server and local paths coincide
	LibraryRoots []string         // server-side library locations; empty skips containment checks
}

// Group collects the entries relocated under one staging root. Two library
// locations with the same parent directory share a group.
type Group struct {
	Parent     string // local parent directory holding the staging root
	StagingDir string // Parent joined with StagingDirName
	Entries    []*Entry
}

// Validate splits inputs into plannable entries and per-entry exclusions.
//
// An input is excluded when its path falls outside every known library
// location, or when its mapped local directory does not exist. Exclusions
// never abort the rest of the batch.
func (p *Planner) Validate(inputs []InputEntry) ([]InputEntry, []*Entry) {
	var valid []InputEntry
	var excluded []*Entry

	for _, in := range inputs {
		local := p.Mapping.ToLocal(in.CatalogPath)
		if len(p.LibraryRoots) > 0 && !p.withinAnyRoot(in.CatalogPath) {
			excluded = append(excluded, &Entry{
				CatalogPath: in.CatalogPath,
				LocalPath:   local,
				CatalogIDs:  in.CatalogIDs,
				State:       Failed,
				Reason:      "outside known library locations",
			})
			continue
		}
		if info, err := os.Stat(local); err != nil || !info.IsDir() {
			reason := "path does not exist on local filesystem"
			if err == nil {
				reason = "path is not a directory"
			}
			excluded = append(excluded, &Entry{
				CatalogPath: in.CatalogPath,
				LocalPath:   local,
				CatalogIDs:  in.CatalogIDs,
				State:       Failed,
				Reason:      reason,
			})
			continue
		}
		valid = append(valid, in)
	}
	return valid, excluded
}

// Plan turns validated inputs into move groups keyed by staging root.
//
// The staging root for an entry sits beside its library root: the parent of
// the root's local path, joined with StagingDirName. Entries keep a single
// global index so staging names stay unique even across groups.
func (p *Planner) Plan(inputs []InputEntry) []*Group {
	var groups []*Group
	byDir := make(map[string]*Group)

	for i, in := range inputs {
		local := p.Mapping.ToLocal(in.CatalogPath)
		libRoot := p.libraryRootFor(in.CatalogPath)
		parent := filepath.Dir(p.Mapping.ToLocal(libRoot))
		stagingDir := filepath.Join(parent, StagingDirName)

		group := byDir[stagingDir]
		if group == nil {
			group = &Group{Parent: parent, StagingDir: stagingDir}
			byDir[stagingDir] = group
			groups = append(groups, group)
		}

		album := filepath.Base(local)
		artist := filepath.Base(filepath.Dir(local))
		name := stagingName(i, artist, album)

		group.Entries = append(group.Entries, &Entry{
			Index:                i,
			CatalogPath:          in.CatalogPath,
			LocalPath:            local,
			StagingPath:          filepath.Join(stagingDir, name),
			CompanionPath:        companionFor(local),
			StagingCompanionPath: filepath.Join(stagingDir, companionPrefix+name),
			CatalogIDs:           in.CatalogIDs,
			State:                Pending,
		})
	}
	return groups
}

// libraryRootFor picks the library location containing catalogPath, preferring
// the longest match so nested locations resolve to the nearest root. Paths
// outside every location fall back to their own parent directory.
func (p *Planner) libraryRootFor(catalogPath string) string {
	best := ""
	for _, root := range p.LibraryRoots {
		if pathmap.WithinRoot(root, catalogPath) && len(root) > len(best) {
			best = root
		}
	}
	if best == "" {
		return filepath.Dir(catalogPath)
	}
	return best
}

func (p *Planner) withinAnyRoot(catalogPath string) bool {
	for _, root := range p.LibraryRoots {
		if pathmap.WithinRoot(root, catalogPath) {
			return true
		}
	}
	return false
}

// companionFor returns the AppleDouble sidecar path paired with path.
func companionFor(path string) string {
	return filepath.Join(filepath.Dir(path), companionPrefix+filepath.Base(path))
}

// stagingName builds the "{index}_{artist}_{album}" staging component, kept
// under maxNameBytes. When the full name is too long, the byte budget left
// after the index prefix is split evenly between artist and album, each
// truncated on a rune boundary.
func stagingName(index int, artist, album string) string {
	artist = sanitizeComponent(artist)
	album = sanitizeComponent(album)

	full := fmt.Sprintf("%d_%s_%s", index, artist, album)
	if len(full) <= maxNameBytes {
		return full
	}

	prefix := fmt.Sprintf("%d_", index)
	remaining := maxNameBytes - len(prefix) - 1
	artistBudget := remaining / 2
	albumBudget := remaining - artistBudget

	return fmt.Sprintf("%d_%s_%s", index, truncateUTF8(artist, artistBudget), truncateUTF8(album, albumBudget))
}

// sanitizeComponent keeps letters, digits, and "-_. ", replacing everything
// else with underscores. Letters and digits from any script survive, which is
// why truncation has to respect UTF-8 boundaries.
func sanitizeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.' || r == ' ':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// truncateUTF8 cuts s to at most max bytes without splitting a rune.
func truncateUTF8(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
