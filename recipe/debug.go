package recipe

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/maruel/natural"

	"cssg/stylesheet"
	"cssg/utils/debug"
)

// String returns a readable tree of the whole Recipe. It exists solely for
// manual inspection during debugging.
func (r *Recipe) String() string {
	if r == nil {
		return "<nil Recipe>"
	}

	tw := debug.NewTreeWriter()

	tw.Line(0, "Recipe[%q] version[%d]", r.Metadata.Name, r.Version)
	tw.Line(1, "ID: %s", r.Metadata.ID)
	if r.Metadata.Author != "" {
		tw.Line(1, "Author: %s", r.Metadata.Author)
	}
	if r.SrcName != "" {
		tw.Line(1, "Source: %s", r.SrcName)
	}
	tw.Line(1, "Scoped: %t", r.Scoped)
	tw.Strings(1, "Imports", r.Imports)
	tw.Strings(1, "Raw snippets", rawSummaries(r.Raw))

	if len(r.FontFaces) > 0 {
		tw.Line(0, "Font faces: %d", len(r.FontFaces))
		for _, ff := range r.FontFaces {
			tw.Line(1, "Family[%q] src[%q] style[%q] weight[%q]", ff.Family, ff.Src, ff.Style, ff.Weight)
		}
	}

	if len(r.Rules) > 0 {
		tw.Line(0, "Rules: %d", len(r.Rules))
		dumpRules(tw, 1, r.Rules)
	}

	if len(r.Media) > 0 {
		tw.Line(0, "Media blocks: %d", len(r.Media))
		for _, ms := range r.Media {
			tw.Line(1, "Query[%q] rules[%d]", ms.query().Render(), len(ms.Rules))
			dumpRules(tw, 2, ms.Rules)
		}
	}

	if props := r.propertyUse(); len(props) > 0 {
		tw.Line(0, "Properties used: %d", len(props))
		keys := slices.Collect(maps.Keys(props))
		sort.Sort(natural.StringSlice(keys))
		for _, k := range keys {
			tw.Line(1, "%s: %d", k, props[k])
		}
	}

	return tw.String()
}

func dumpRules(tw *debug.TreeWriter, depth int, specs []RuleSpec) {
	for i, spec := range specs {
		tw.Line(depth, "Rule[%d] name[%q] selector[%q]", i, spec.Name, spec.Selector.debugText())
		tw.Strings(depth+1, "Declarations", propertyNames(spec.Declarations))
	}
}

// debugText renders the selector a spec describes without scoping, best
// effort: broken specs dump their failure instead.
func (s *SelectorSpec) debugText() string {
	sel, err := s.selector(stylesheet.Scope{})
	if err != nil {
		return fmt.Sprintf("<invalid: %v>", err)
	}
	text, err := sel.Render()
	if err != nil {
		return fmt.Sprintf("<invalid: %v>", err)
	}
	return text
}

// propertyUse counts how often each declared property occurs across the
// whole recipe, media rules included.
func (r *Recipe) propertyUse() map[string]int {
	props := make(map[string]int)
	count := func(specs []RuleSpec) {
		for _, spec := range specs {
			for _, d := range spec.Declarations {
				props[d.Property]++
			}
		}
	}
	count(r.Rules)
	for _, ms := range r.Media {
		count(ms.Rules)
	}
	return props
}

func propertyNames(decls Declarations) []string {
	names := make([]string, 0, len(decls))
	for _, d := range decls {
		names = append(names, d.Property)
	}
	return names
}

// rawSummaries shortens raw snippets to their first line for the dump.
func rawSummaries(snippets []string) []string {
	out := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[:i] + "..."
		}
		out = append(out, s)
	}
	return out
}
