package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// console prints user-facing command output, coloured on terminals
type console struct {
	w       io.Writer
	colored bool
}

func newConsole(w io.Writer) *console {
	colored := false
	if f, ok := w.(*os.File); ok {
		colored = isatty.IsTerminal(f.Fd()) && !color.NoColor
	}
	return &console{w: w, colored: colored}
}

func (c *console) paint(attr color.Attribute, format string, args ...any) string {
	text := fmt.Sprintf(format, args...)
	if !c.colored {
		return text
	}
	p := color.New(attr)
	p.EnableColor()
	return p.Sprint(text)
}

func (c *console) header(format string, args ...any) {
	fmt.Fprintln(c.w, c.paint(color.Bold, format, args...))
}

func (c *console) success(format string, args ...any) {
	fmt.Fprintln(c.w, c.paint(color.FgGreen, format, args...))
}

func (c *console) warn(format string, args ...any) {
	fmt.Fprintln(c.w, c.paint(color.FgYellow, format, args...))
}

func (c *console) failure(format string, args ...any) {
	fmt.Fprintln(c.w, c.paint(color.FgRed, format, args...))
}

func (c *console) line(format string, args ...any) {
	fmt.Fprintf(c.w, format+"\n", args...)
}

// values prints a name/value listing in name order
func (c *console) values(values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.line("  %-28s %g", name, values[name])
	}
}
