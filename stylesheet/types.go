// Package stylesheet models a CSS stylesheet on the generation side: typed
// items assembled from built selectors and rendered to text. Unlike a
// parsed representation there is no raw source to fall back on - every rule
// holds a live selector value and rendering may surface its errors.
package stylesheet

import (
	"cssg/selector"
)

// Declaration is a single property/value pair. Declarations keep authored
// order: on the generation side order is meaningful to the cascade, so no
// sorting is applied.
type Declaration struct {
	Property string
	Value    string
}

// Rule pairs a selector with its declarations. The selector renders lazily,
// when the stylesheet is written out.
type Rule struct {
	Selector     selector.Selector
	Declarations []Declaration
}

// FontFace describes an @font-face block.
type FontFace struct {
	Family string // font-family value
	Src    string // src value (URL or local reference)
	Style  string // font-style: normal, italic
	Weight string // font-weight: normal, bold, 400, 700
}

// Item is a single top-level stylesheet item. Exactly one field is non-nil.
type Item struct {
	Rule     *Rule
	Media    *MediaBlock
	FontFace *FontFace
	Import   *string // @import URL
	Raw      *string // verbatim CSS passthrough, emitted untouched
}

// Stylesheet holds top-level items in source order plus warnings collected
// while the sheet was assembled.
type Stylesheet struct {
	Items    []Item
	Warnings []string
}

// AddRule appends a rule and returns it for further declaration appends.
func (s *Stylesheet) AddRule(sel selector.Selector, decls ...Declaration) *Rule {
	r := &Rule{Selector: sel, Declarations: decls}
	s.Items = append(s.Items, Item{Rule: r})
	return r
}

// AddMedia appends an empty media block for the given query and returns it.
func (s *Stylesheet) AddMedia(q MediaQuery) *MediaBlock {
	mb := &MediaBlock{Query: q}
	s.Items = append(s.Items, Item{Media: mb})
	return mb
}

// AddFontFace appends an @font-face block.
func (s *Stylesheet) AddFontFace(ff FontFace) {
	s.Items = append(s.Items, Item{FontFace: &ff})
}

// AddImport appends an @import item.
func (s *Stylesheet) AddImport(url string) {
	s.Items = append(s.Items, Item{Import: &url})
}

// AddRaw appends a verbatim CSS snippet. The text is emitted exactly as
// given, it is never tokenized or rewritten.
func (s *Stylesheet) AddRaw(text string) {
	s.Items = append(s.Items, Item{Raw: &text})
}

// Warn records an assembly warning.
func (s *Stylesheet) Warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// Imports returns all @import URLs in source order.
func (s *Stylesheet) Imports() []string {
	var urls []string
	for _, item := range s.Items {
		if item.Import != nil {
			urls = append(urls, *item.Import)
		}
	}
	return urls
}

// FontFaces returns all @font-face blocks with a non-empty family in source
// order.
func (s *Stylesheet) FontFaces() []FontFace {
	var faces []FontFace
	for _, item := range s.Items {
		if item.FontFace != nil && item.FontFace.Family != "" {
			faces = append(faces, *item.FontFace)
		}
	}
	return faces
}

// Rules returns all top-level rules in source order, media blocks excluded.
func (s *Stylesheet) Rules() []*Rule {
	var rules []*Rule
	for _, item := range s.Items {
		if item.Rule != nil {
			rules = append(rules, item.Rule)
		}
	}
	return rules
}

// PruneMedia drops media blocks whose query does not match the given
// viewport, returning how many were removed. Items other than media blocks
// are never touched.
func (s *Stylesheet) PruneMedia(viewport func(MediaQuery) bool) int {
	kept := s.Items[:0]
	pruned := 0
	for _, item := range s.Items {
		if item.Media != nil && !viewport(item.Media.Query) {
			pruned++
			continue
		}
		kept = append(kept, item)
	}
	s.Items = kept
	return pruned
}
