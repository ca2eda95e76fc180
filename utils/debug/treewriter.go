// Package debug provides helpers for readable dumps of nested structures.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// TreeWriter accumulates an indented, line-oriented dump. Depth is counted
// in two-space steps.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

// Line writes a single formatted line at the given depth.
func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes a labeled text value, quoted so control characters and
// embedded quotes survive inspection.
func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Strings writes a labeled list of values on one line, each value quoted.
func (tw TreeWriter) Strings(depth int, label string, values []string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": [")
	for i, v := range values {
		if i > 0 {
			tw.w.WriteString(", ")
		}
		tw.w.WriteString(encodeText(v))
	}
	tw.w.WriteString("]\n")
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
