// package formatter renders scan reports for terminals, files, and pipes
package formatter

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/plexdance/internal/catalog"
	"github.com/desertthunder/plexdance/internal/shared"
)

// Format names an output encoding for scan reports.
type Format string

const (
	// FormatText is the human-readable report.
	FormatText Format = "text"
	// FormatTSV is engine-ready dance input, one directory per line.
	FormatTSV Format = "tsv"
	// FormatJSON is the full report as indented JSON.
	FormatJSON Format = "json"
)

// ParseFormat validates a --format flag value. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "":
		return FormatText, nil
	case FormatText:
		return FormatText, nil
	case FormatTSV:
		return FormatTSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: format %q (want text, tsv, or json)", shared.ErrInvalidFlag, s)
	}
}

// extension maps a format to its default file extension.
func (f Format) extension() string {
	switch f {
	case FormatTSV:
		return ".tsv"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// ScanToText renders a scan report for reading.
func ScanToText(report *catalog.Report) ([]byte, error) {
	var buf bytes.Buffer

	title := report.SectionTitle
	if title == "" {
		title = "(cached)"
	}
	buf.WriteString(fmt.Sprintf("Library scan: %s (section %s)\n", title, report.SectionKey))
	buf.WriteString(fmt.Sprintf("Tracks: %d  Directories: %d  Albums: %d\n\n", report.Tracks, report.Directories, report.Albums))

	if report.Clean() {
		buf.WriteString("No mixed directories or split albums found.\n")
		return buf.Bytes(), nil
	}

	if len(report.Mixed) > 0 {
		buf.WriteString(fmt.Sprintf("Mixed directories (%d):\n", len(report.Mixed)))
		for _, m := range report.Mixed {
			buf.WriteString(fmt.Sprintf("  %s\n", m.Directory))
			buf.WriteString(fmt.Sprintf("    %d tracks under albums %s\n", m.Tracks, strings.Join(m.AlbumKeys, ", ")))
		}
		buf.WriteString("\n")
	}

	if len(report.Split) > 0 {
		buf.WriteString(fmt.Sprintf("Split albums (%d):\n", len(report.Split)))
		for _, s := range report.Split {
			buf.WriteString(fmt.Sprintf("  %s - %s (album %s, %d tracks)\n", s.Artist, s.Album, s.AlbumKey, s.Tracks))
			for _, dir := range s.Directories {
				buf.WriteString(fmt.Sprintf("    %s\n", dir))
			}
		}
		buf.WriteString("\n")
	}

	lines := report.InputLines()
	buf.WriteString(fmt.Sprintf("Dance input (%d directories):\n", len(lines)))
	for _, line := range lines {
		buf.WriteString(fmt.Sprintf("  %s\n", line))
	}

	return buf.Bytes(), nil
}

// ScanToTSV renders only the engine-ready input lines, ready to feed back
// into the dance command.
func ScanToTSV(report *catalog.Report) ([]byte, error) {
	lines := report.InputLines()
	if len(lines) == 0 {
		return nil, nil
	}
	return []byte(strings.Join(lines, "\n") + "\n"), nil
}

// ScanToJSON renders the whole report as indented JSON.
func ScanToJSON(report *catalog.Report) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// RenderScan dispatches on format.
func RenderScan(report *catalog.Report, format Format) ([]byte, error) {
	switch format {
	case FormatTSV:
		return ScanToTSV(report)
	case FormatJSON:
		return ScanToJSON(report)
	default:
		return ScanToText(report)
	}
}

// WriteScan renders the report and writes it to path, defaulting the filename
// to scan_report plus the format's extension. Returns the path written.
func WriteScan(report *catalog.Report, path string, format Format) (string, error) {
	if path == "" {
		path = "scan_report" + format.extension()
	}

	data, err := RenderScan(report, format)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}
