// Package ui renders user-facing terminal output: lipgloss-styled headings
// and status marks, and bordered tables for summaries. Styling switches off
// when stdout is not a terminal so piped output stays plain.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

var styled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// Title renders a heading.
func Title(s string) string { return render(styles.title, s) }

// OK renders a success.
func OK(s string) string { return render(styles.ok, s) }

// Err renders a failure.
func Err(s string) string { return render(styles.err, s) }

// Warn renders a caution.
func Warn(s string) string { return render(styles.warn, s) }

// Help renders secondary detail.
func Help(s string) string { return render(styles.help, s) }

// Check prefixes s with a success mark.
func Check(s string) string { return OK("✓") + " " + s }

// Cross prefixes s with a failure mark.
func Cross(s string) string { return Err("✗") + " " + s }

func render(style lipgloss.Style, s string) string {
	if !styled {
		return s
	}
	return style.Render(s)
}
