// Package display renders CLI tables and status lines with color when the
// output is an interactive terminal.
package display

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Printer writes user-facing output, coloring only when the destination is
// a TTY (and NO_COLOR is unset, via the color package).
type Printer struct {
	out     io.Writer
	colored bool
}

// NewPrinter creates a Printer for the given writer.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, colored: isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) paint(c *color.Color, format string, args ...any) string {
	if p.colored {
		return c.Sprintf(format, args...)
	}
	return fmt.Sprintf(format, args...)
}

// Success prints a green line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.out, p.paint(color.New(color.FgGreen), format, args...))
}

// Warn prints a yellow line.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.out, p.paint(color.New(color.FgYellow), format, args...))
}

// Error prints a red line.
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.out, p.paint(color.New(color.FgRed), format, args...))
}

// Info prints an uncolored line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Dim prints a faint line.
func (p *Printer) Dim(format string, args ...any) {
	fmt.Fprintln(p.out, p.paint(color.New(color.Faint), format, args...))
}

// Green returns the string rendered green when color is active.
func (p *Printer) Green(s string) string { return p.paint(color.New(color.FgGreen), "%s", s) }

// Red returns the string rendered red when color is active.
func (p *Printer) Red(s string) string { return p.paint(color.New(color.FgRed), "%s", s) }

// Yellow returns the string rendered yellow when color is active.
func (p *Printer) Yellow(s string) string { return p.paint(color.New(color.FgYellow), "%s", s) }

// Cyan returns the string rendered cyan when color is active.
func (p *Printer) Cyan(s string) string { return p.paint(color.New(color.FgCyan), "%s", s) }

// Table renders aligned rows. The first row is the header.
func (p *Printer) Table(rows [][]string) {
	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, cell)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}
