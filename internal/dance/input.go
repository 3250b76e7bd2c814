package dance

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/plexdance/internal/shared"
)

// InputEntry is one parsed line of dance input: a server-side album directory
// plus the album rating keys under it, when the caller supplied any.
type InputEntry struct {
	CatalogPath string
	CatalogIDs  []string
}

// ReadEntries parses line-oriented dance input from r.
//
// Each line is either a bare catalog path or "path<TAB>id1,id2,...". Blank
// lines are skipped. Entries without ids fall back to the slower list-based
// verification, so ids should be supplied whenever they are known.
func ReadEntries(r io.Reader) ([]InputEntry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []InputEntry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		path := line
		var ids []string
		if rawPath, rawIDs, ok := strings.Cut(line, "\t"); ok {
			path = strings.TrimSpace(rawPath)
			for _, id := range strings.Split(rawIDs, ",") {
				if id = strings.TrimSpace(id); id != "" {
					ids = append(ids, id)
				}
			}
		}
		if path == "" {
			return nil, fmt.Errorf("%w: line %q has no path", shared.ErrInvalidInput, line)
		}
		entries = append(entries, InputEntry{CatalogPath: path, CatalogIDs: ids})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no paths provided", shared.ErrInvalidInput)
	}
	return entries, nil
}

// ReadEntryFile opens path and parses it as dance input.
func ReadEntryFile(path string) ([]InputEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()
	return ReadEntries(f)
}
