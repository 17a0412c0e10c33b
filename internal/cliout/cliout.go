// Package cliout provides consistent CLI output formatting: plain text
// on a pipe or redirect, lipgloss-styled text on a real terminal.
package cliout

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

const (
	colorAccent = "39"  // cyan, verified/success
	colorWarn   = "220" // yellow, unverified/warning
	colorErr    = "196" // red
	colorDim    = "245" // gray, secondary text
)

// Styles holds the styles applied when writing to a terminal.
type Styles struct {
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Header  lipgloss.Style
}

func defaultStyles() Styles {
	return Styles{
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarn)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorErr)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorDim)),
		Header:  lipgloss.NewStyle().Bold(true),
	}
}

// Writer prints status lines to out, styled when out is a terminal.
type Writer struct {
	out      io.Writer
	useColor bool
	styles   Styles
}

// New builds a Writer, detecting terminal support via isatty when out
// is an *os.File.
func New(out io.Writer) *Writer {
	return &Writer{out: out, useColor: isTerminal(out), styles: defaultStyles()}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (w *Writer) render(style lipgloss.Style, icon, msg string) {
	line := msg
	if icon != "" {
		line = icon + " " + msg
	}
	if w.useColor {
		line = style.Render(line)
	}
	_, _ = fmt.Fprintln(w.out, line)
}

// Success prints a positive status line, e.g. a verified citation.
func (w *Writer) Success(msg string) { w.render(w.styles.Success, "✓", msg) }

// Successf is Success with formatting.
func (w *Writer) Successf(format string, args ...any) { w.Success(fmt.Sprintf(format, args...)) }

// Warning prints a cautionary status line, e.g. an unverified result.
func (w *Writer) Warning(msg string) { w.render(w.styles.Warning, "!", msg) }

// Warningf is Warning with formatting.
func (w *Writer) Warningf(format string, args ...any) { w.Warning(fmt.Sprintf(format, args...)) }

// Error prints a failure status line.
func (w *Writer) Error(msg string) { w.render(w.styles.Error, "✗", msg) }

// Errorf is Error with formatting.
func (w *Writer) Errorf(format string, args ...any) { w.Error(fmt.Sprintf(format, args...)) }

// Status prints a plain, uncolored status line.
func (w *Writer) Status(msg string) { w.render(lipgloss.NewStyle(), "", msg) }

// Statusf is Status with formatting.
func (w *Writer) Statusf(format string, args ...any) { w.Status(fmt.Sprintf(format, args...)) }

// Header prints a bold section heading.
func (w *Writer) Header(msg string) { w.render(w.styles.Header, "", msg) }

// Dim prints de-emphasized secondary text, e.g. a confidence label.
func (w *Writer) Dim(msg string) { w.render(w.styles.Dim, "", msg) }

// Newline prints a blank line.
func (w *Writer) Newline() { _, _ = fmt.Fprintln(w.out) }
