// Package playlist makes a server playlist mirror a local M3U file: parse the
// file, map its paths into the server's namespace, resolve each to an indexed
// track, then create or rebuild the named playlist to match.
package playlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/plexdance/internal/shared"
)

// ParseM3U reads playlist entries from r. Comment lines (#EXTM3U, #EXTINF and
// friends) and blank lines are skipped; relative paths resolve against
// baseDir. Entry order is preserved.
func ParseM3U(r io.Reader, baseDir string) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var files []string
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\uFEFF")
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !filepath.IsAbs(line) {
			line = filepath.Join(baseDir, line)
		}
		files = append(files, filepath.Clean(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: playlist has no entries", shared.ErrInvalidInput)
	}
	return files, nil
}

// ReadM3U parses the M3U file at path, resolving relative entries against the
// file's own directory.
func ReadM3U(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open playlist: %w", err)
	}
	defer f.Close()

	return ParseM3U(f, filepath.Dir(path))
}

// DefaultName derives a playlist title from the M3U filename.
func DefaultName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
