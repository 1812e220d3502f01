// Package display renders the experiment's console output: the run banner,
// each turn as it arrives, and the closing summaries. Styling is applied only
// when writing to a terminal so redirected output stays plain text.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"golang.org/x/term"
)

const ruleWidth = 80

var (
	colorInstanceA = lipgloss.Color("141")
	colorInstanceB = lipgloss.Color("81")
	colorMuted     = lipgloss.Color("240")
	colorError     = lipgloss.Color("196")
	colorSuccess   = lipgloss.Color("42")
	colorTitle     = lipgloss.Color("252")
)

var (
	instanceAStyle = lipgloss.NewStyle().Foreground(colorInstanceA).Bold(true)
	instanceBStyle = lipgloss.NewStyle().Foreground(colorInstanceB).Bold(true)
	ruleStyle      = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	successStyle   = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	titleStyle     = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
)

// Printer writes console output for one run.
type Printer struct {
	w      io.Writer
	styled bool
}

// New returns a Printer that styles output when w is a terminal.
func New(w io.Writer) *Printer {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}
	return &Printer{w: w, styled: styled}
}

// NewPlain returns a Printer that never emits escape sequences.
func NewPlain(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Writer exposes the underlying writer for callers that format their own text.
func (p *Printer) Writer() io.Writer {
	return p.w
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p *Printer) rule(ch string) string {
	return p.render(ruleStyle, strings.Repeat(ch, ruleWidth))
}

// Banner announces the run configuration.
func (p *Printer) Banner(model string, maxTurns int, outputPath string) {
	fmt.Fprintln(p.w, p.render(titleStyle, "Starting Grok conversation experiment..."))
	fmt.Fprintf(p.w, "Model: %s\n", model)
	fmt.Fprintf(p.w, "Max turns: %d\n", maxTurns)
	fmt.Fprintf(p.w, "Output file: %s\n", outputPath)
	fmt.Fprintln(p.w, p.rule("="))
}

// Turn prints one message under its instance header.
func (p *Printer) Turn(instance string, turn int, message string) {
	style := instanceAStyle
	if instance == "B" {
		style = instanceBStyle
	}
	fmt.Fprintf(p.w, "\n%s\n", p.render(style, fmt.Sprintf("[Instance %s - Turn %d]", instance, turn)))
	fmt.Fprintln(p.w, message)
	fmt.Fprintln(p.w, p.rule("-"))
}

// StoppingPoint reports that a stopping phrase ended the run.
func (p *Printer) StoppingPoint(turn int) {
	fmt.Fprintf(p.w, "\n%s\n", p.render(successStyle, fmt.Sprintf("Conversation reached natural stopping point at turn %d", turn)))
}

// Error reports the remote failure that aborted the run.
func (p *Printer) Error(turn int, err error) {
	fmt.Fprintf(p.w, "\n%s\n", p.render(errorStyle, fmt.Sprintf("Error at turn %d: %v", turn, err)))
}

// Complete prints the closing summary.
func (p *Printer) Complete(totalTurns int, outputPath string) {
	fmt.Fprintln(p.w, p.rule("="))
	fmt.Fprintf(p.w, "\n%s\n", p.render(successStyle, "Experiment complete!"))
	fmt.Fprintf(p.w, "Total turns: %d\n", totalTurns)
	fmt.Fprintf(p.w, "Conversation saved to: %s\n", outputPath)
}

// Heading prints a title framed by full-width rules.
func (p *Printer) Heading(title string) {
	fmt.Fprintf(p.w, "\n%s\n", p.rule("="))
	fmt.Fprintln(p.w, p.render(titleStyle, title))
	fmt.Fprintln(p.w, p.rule("="))
}
