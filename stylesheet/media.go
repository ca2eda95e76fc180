package stylesheet

import (
	"strconv"
	"strings"

	"cssg/geom"
	"cssg/selector"
)

// MediaFeature is one feature condition inside a media query. Value is the
// raw value text; boolean features leave it empty.
type MediaFeature struct {
	Name    string
	Value   string
	Negated bool
}

// MediaQuery is a generated @media condition: an optional media type plus
// feature conditions joined with "and".
type MediaQuery struct {
	Type     string // "screen", "print", "all"; empty means all
	Negated  bool   // "not" modifier on the type
	Features []MediaFeature
}

// MediaBlock is a @media block with its nested rules.
type MediaBlock struct {
	Query MediaQuery
	Rules []Rule
}

// AddRule appends a nested rule to the block and returns it.
func (mb *MediaBlock) AddRule(sel selector.Selector, decls ...Declaration) *Rule {
	mb.Rules = append(mb.Rules, Rule{Selector: sel, Declarations: decls})
	return &mb.Rules[len(mb.Rules)-1]
}

// Render returns the query condition text as it appears after "@media".
func (mq MediaQuery) Render() string {
	var sb strings.Builder

	typ := mq.Type
	if typ == "" && mq.Negated {
		typ = "all"
	}
	if typ != "" {
		if mq.Negated {
			sb.WriteString("not ")
		}
		sb.WriteString(typ)
	}

	for _, f := range mq.Features {
		if sb.Len() > 0 {
			sb.WriteString(" and ")
		}
		if f.Negated {
			sb.WriteString("not ")
		}
		sb.WriteByte('(')
		sb.WriteString(f.Name)
		if f.Value != "" {
			sb.WriteString(": ")
			sb.WriteString(f.Value)
		}
		sb.WriteByte(')')
	}

	if sb.Len() == 0 {
		return "all"
	}
	return sb.String()
}

// Evaluate reports whether the query matches the given viewport. The media
// type matches for "", "all" and "screen"; anything else does not. Feature
// conditions use AND logic, unknown features and unsupported units never
// match. Negation flips the individual result.
func (mq MediaQuery) Evaluate(viewport geom.Rectangle) bool {
	typeMatches := false
	switch strings.ToLower(mq.Type) {
	case "", "all", "screen":
		typeMatches = true
	}
	if mq.Negated {
		typeMatches = !typeMatches
	}
	if !typeMatches {
		return false
	}

	for _, f := range mq.Features {
		matches := evaluateFeature(f, viewport)
		if f.Negated {
			matches = !matches
		}
		if !matches {
			return false
		}
	}
	return true
}

// KnownFeature reports whether Evaluate interprets the named feature.
// Unknown features always evaluate as non-matching.
func KnownFeature(name string) bool {
	switch strings.ToLower(name) {
	case "min-width", "max-width", "width", "min-height", "max-height", "height", "orientation":
		return true
	}
	return false
}

func evaluateFeature(f MediaFeature, viewport geom.Rectangle) bool {
	switch strings.ToLower(f.Name) {
	case "min-width":
		v, ok := parseLength(f.Value)
		return ok && viewport.Width >= v
	case "max-width":
		v, ok := parseLength(f.Value)
		return ok && viewport.Width <= v
	case "width":
		v, ok := parseLength(f.Value)
		return ok && viewport.Width == v
	case "min-height":
		v, ok := parseLength(f.Value)
		return ok && viewport.Height >= v
	case "max-height":
		v, ok := parseLength(f.Value)
		return ok && viewport.Height <= v
	case "height":
		v, ok := parseLength(f.Value)
		return ok && viewport.Height == v
	case "orientation":
		switch strings.ToLower(f.Value) {
		case "landscape":
			return viewport.Landscape()
		case "portrait":
			return !viewport.Landscape()
		}
		return false
	default:
		return false
	}
}

// parseLength understands px lengths and bare numbers (treated as px).
// Every other unit is unsupported and makes the feature non-matching.
func parseLength(value string) (float64, bool) {
	value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "px"))
	if value == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
