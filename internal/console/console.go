// Package console prints the human-facing run summary. Structured logs go
// to stderr through internal/logging; this package writes to stdout.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	stepColor    = color.New(color.FgWhite, color.Bold)
)

// Printer writes colored status lines. Color is disabled automatically when
// stdout is not a terminal, and can be forced off with NoColor.
type Printer struct {
	w io.Writer
}

// New returns a Printer writing to w. A nil w means stdout.
func New(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{w: w}
}

// NoColor disables color for every Printer.
func NoColor() {
	color.NoColor = true
}

func (p *Printer) Success(format string, a ...any) {
	successColor.Fprintf(p.w, "✓ "+format+"\n", a...)
}

func (p *Printer) Failure(format string, a ...any) {
	errorColor.Fprintf(p.w, "✗ "+format+"\n", a...)
}

func (p *Printer) Warn(format string, a ...any) {
	warnColor.Fprintf(p.w, "⚠ "+format+"\n", a...)
}

func (p *Printer) Info(format string, a ...any) {
	infoColor.Fprintf(p.w, format+"\n", a...)
}

// Detail prints an indented plain line under a step.
func (p *Printer) Detail(format string, a ...any) {
	fmt.Fprintf(p.w, "    "+format+"\n", a...)
}

// Step prints a numbered step heading, e.g. "[ 3/10] Validating records...".
func (p *Printer) Step(n, total int, title string) {
	stepColor.Fprintf(p.w, "[%2d/%d] %s\n", n, total, title)
}

// Banner prints a title framed by rules.
func (p *Printer) Banner(title string) {
	rule := strings.Repeat("=", 47)
	fmt.Fprintln(p.w, rule)
	fmt.Fprintln(p.w, "     "+title)
	fmt.Fprintln(p.w, rule)
}

// Rule prints a horizontal rule.
func (p *Printer) Rule() {
	fmt.Fprintln(p.w, strings.Repeat("=", 47))
}
