package stylesheet

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// cssEscapeDoubleQuoted escapes a string for use inside CSS double quotes.
// Backslashes and double quotes are escaped per CSS syntax: \" and \\.
func cssEscapeDoubleQuoted(s string) string {
	// Fast path: nothing to escape.
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WriteTo writes the stylesheet to w in source order, implementing
// io.WriterTo. Declarations keep authored order. Selector render failures
// abort the write with the underlying error.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, item := range s.Items {
		var n int
		var err error

		switch {
		case item.Import != nil:
			n, err = fmt.Fprintf(w, "@import url(\"%s\");\n", cssEscapeDoubleQuoted(*item.Import))
		case item.FontFace != nil:
			n, err = writeFontFace(w, item.FontFace)
		case item.Media != nil:
			n, err = writeMediaBlock(w, item.Media)
		case item.Rule != nil:
			n, err = writeRule(w, item.Rule, "")
		case item.Raw != nil:
			n, err = writeRaw(w, *item.Raw)
		}

		total += int64(n)
		if err != nil {
			return total, err
		}

		// blank line between items (except after last)
		if i < len(s.Items)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet. Write failures leave the
// result truncated; use WriteTo when errors matter.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// writeRule writes a single rule at the given indent.
func writeRule(w io.Writer, rule *Rule, indent string) (int, error) {
	if rule.Selector == nil {
		return 0, errors.New("rule has no selector")
	}
	sel, err := rule.Selector.Render()
	if err != nil {
		return 0, fmt.Errorf("unable to render rule selector: %w", err)
	}

	var total int
	n, err := fmt.Fprintf(w, "%s%s {\n", indent, sel)
	total += n
	if err != nil {
		return total, err
	}
	n, err = writeDeclarations(w, rule.Declarations, indent+"  ")
	total += n
	if err != nil {
		return total, err
	}
	n, err = fmt.Fprintf(w, "%s}\n", indent)
	total += n
	return total, err
}

// writeDeclarations writes declarations in authored order.
func writeDeclarations(w io.Writer, decls []Declaration, indent string) (int, error) {
	var total int
	for _, d := range decls {
		n, err := fmt.Fprintf(w, "%s%s: %s;\n", indent, d.Property, d.Value)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// writeFontFace writes an @font-face block with its properties in a stable
// order.
func writeFontFace(w io.Writer, ff *FontFace) (int, error) {
	var total int
	n, err := fmt.Fprint(w, "@font-face {\n")
	total += n
	if err != nil {
		return total, err
	}

	if ff.Family != "" {
		n, err = fmt.Fprintf(w, "  font-family: \"%s\";\n", cssEscapeDoubleQuoted(ff.Family))
		total += n
		if err != nil {
			return total, err
		}
	}
	if ff.Src != "" {
		n, err = fmt.Fprintf(w, "  src: %s;\n", ff.Src)
		total += n
		if err != nil {
			return total, err
		}
	}
	if ff.Style != "" {
		n, err = fmt.Fprintf(w, "  font-style: %s;\n", ff.Style)
		total += n
		if err != nil {
			return total, err
		}
	}
	if ff.Weight != "" {
		n, err = fmt.Fprintf(w, "  font-weight: %s;\n", ff.Weight)
		total += n
		if err != nil {
			return total, err
		}
	}

	n, err = fmt.Fprint(w, "}\n")
	total += n
	return total, err
}

// writeMediaBlock writes a @media block with nested rules indented one
// level.
func writeMediaBlock(w io.Writer, mb *MediaBlock) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "@media %s {\n", mb.Query.Render())
	total += n
	if err != nil {
		return total, err
	}

	for i := range mb.Rules {
		n, err = writeRule(w, &mb.Rules[i], "  ")
		total += n
		if err != nil {
			return total, err
		}

		// blank line between nested rules (except after last)
		if i < len(mb.Rules)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += n
			if err != nil {
				return total, err
			}
		}
	}

	n, err = fmt.Fprint(w, "}\n")
	total += n
	return total, err
}

// writeRaw emits a passthrough snippet verbatim, adding a trailing newline
// when the snippet does not end with one.
func writeRaw(w io.Writer, text string) (int, error) {
	var total int
	n, err := io.WriteString(w, text)
	total += n
	if err != nil {
		return total, err
	}
	if !strings.HasSuffix(text, "\n") {
		n, err = io.WriteString(w, "\n")
		total += n
	}
	return total, err
}
