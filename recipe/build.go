package recipe

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssg/config"
	"cssg/geom"
	"cssg/selector"
	"cssg/state"
	"cssg/stylesheet"
)

// Build assembles the stylesheet the recipe describes. Sections keep their
// document order (imports, font faces, raw snippets, rules, media blocks);
// rules inside a section follow the configured sort. Failures are collected
// per rule and reported together, so a recipe with several bad rules does
// not need one run per fix.
func (r *Recipe) Build(ctx context.Context, log *zap.Logger) (*stylesheet.Stylesheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := state.EnvFromContext(ctx).Cfg.Render

	scope := r.scope
	if r.Scoped && scope.IsZero() {
		var err error
		if scope, err = stylesheet.NewScope(); err != nil {
			return nil, err
		}
		// keep it so the preview can scope sample markup the same way
		r.scope = scope
	}
	if !scope.IsZero() {
		log.Debug("Scoping recipe classes", zap.String("suffix", scope.Suffix()))
	}

	sheet := &stylesheet.Stylesheet{}

	for _, url := range r.Imports {
		sheet.AddImport(url)
	}
	for _, ff := range r.FontFaces {
		sheet.AddFontFace(stylesheet.FontFace{
			Family: ff.Family,
			Src:    ff.Src,
			Style:  ff.Style,
			Weight: ff.Weight,
		})
	}
	for _, text := range r.Raw {
		sheet.AddRaw(text)
	}

	var errs error

	rules, err := buildRules(r.Rules, scope, cfg.RuleSort, "")
	errs = multierr.Append(errs, err)
	for _, rule := range rules {
		sheet.AddRule(rule.sel, rule.decls...)
	}

	for i, ms := range r.Media {
		for _, f := range ms.Features {
			if !stylesheet.KnownFeature(f.Name) {
				sheet.Warn(fmt.Sprintf("media block %d: unknown feature %q never matches", i+1, f.Name))
			}
		}
		block := sheet.AddMedia(ms.query())
		rules, err := buildRules(ms.Rules, scope, cfg.RuleSort, fmt.Sprintf("media block %d: ", i+1))
		errs = multierr.Append(errs, err)
		for _, rule := range rules {
			block.AddRule(rule.sel, rule.decls...)
		}
	}

	if errs != nil {
		return nil, errs
	}

	if cfg.Media.Prune {
		viewport := geom.NewRectangle(cfg.Media.ViewportWidth, cfg.Media.ViewportHeight)
		pruned := sheet.PruneMedia(func(q stylesheet.MediaQuery) bool { return q.Evaluate(viewport) })
		if pruned > 0 {
			sheet.Warn(fmt.Sprintf("pruned %d media blocks not matching the %gx%g viewport", pruned, viewport.Width, viewport.Height))
			log.Debug("Pruned non-matching media blocks",
				zap.Int("blocks", pruned), zap.Float64("width", viewport.Width), zap.Float64("height", viewport.Height))
		}
	}
	return sheet, nil
}

// builtRule pairs a validated selector with its declarations. The rendered
// text is kept for sorting and diagnostics; the sheet stores the selector
// itself and renders it again on write.
type builtRule struct {
	text  string
	sel   selector.Selector
	decls []stylesheet.Declaration
}

// buildRules turns rule specs into built rules, collecting per-rule
// failures. "where" prefixes diagnostics with the enclosing block.
func buildRules(specs []RuleSpec, scope stylesheet.Scope, order config.RuleSort, where string) ([]builtRule, error) {
	var errs error

	rules := make([]builtRule, 0, len(specs))
	for i, spec := range specs {
		sel, err := spec.Selector.selector(scope)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("unable to build %s%s: %w", where, ruleRef(i, spec.Name), err))
			continue
		}
		text, err := sel.Render()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("unable to render selector of %s%s: %w", where, ruleRef(i, spec.Name), err))
			continue
		}
		if text == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s%s renders to an empty selector", where, ruleRef(i, spec.Name)))
			continue
		}
		rules = append(rules, builtRule{text: text, sel: sel, decls: spec.Declarations})
	}

	if order == config.RuleSortNatural {
		sort.SliceStable(rules, func(i, j int) bool { return natural.Less(rules[i].text, rules[j].text) })
	}
	return rules, errs
}

// ruleRef formats a rule position for diagnostics, 1-based like editors.
func ruleRef(idx int, name string) string {
	if name != "" {
		return fmt.Sprintf("rule %d (%s)", idx+1, name)
	}
	return fmt.Sprintf("rule %d", idx+1)
}

// selector builds the selector value a spec describes. Scoped class names
// get the scope suffix attached; raw and combined sides pass through the
// same treatment recursively.
func (s *SelectorSpec) selector(scope stylesheet.Scope) (selector.Selector, error) {
	if s == nil {
		return nil, errors.New("selector is missing")
	}

	simple := s.Element != "" || s.ID != "" || len(s.Classes) > 0 ||
		len(s.Attributes) > 0 || len(s.PseudoClasses) > 0 || s.PseudoElement != ""
	combined := s.Combinator != "" || s.Left != nil || s.Right != nil
	raw := s.Raw != ""

	shapes := 0
	for _, used := range []bool{simple, combined, raw} {
		if used {
			shapes++
		}
	}
	if shapes > 1 {
		return nil, errors.New("selector must take exactly one shape: simple parts, combinator with sides, or raw text")
	}

	switch {
	case raw:
		return selector.Raw(s.Raw), nil

	case combined:
		if s.Combinator == "" {
			return nil, errors.New("combined selector is missing combinator")
		}
		if s.Left == nil || s.Right == nil {
			return nil, errors.New("combined selector needs both left and right sides")
		}
		left, err := s.Left.selector(scope)
		if err != nil {
			return nil, fmt.Errorf("left side: %w", err)
		}
		right, err := s.Right.selector(scope)
		if err != nil {
			return nil, fmt.Errorf("right side: %w", err)
		}
		return selector.Combine(left, s.Combinator, right), nil

	case simple:
		b := selector.New()
		if s.Element != "" {
			b = b.Element(s.Element)
		}
		if s.ID != "" {
			b = b.ID(s.ID)
		}
		for _, c := range s.Classes {
			b = b.Class(scope.Apply(c))
		}
		for _, a := range s.Attributes {
			b = b.Attr(a)
		}
		for _, p := range s.PseudoClasses {
			b = b.PseudoClass(p)
		}
		if s.PseudoElement != "" {
			b = b.PseudoElement(s.PseudoElement)
		}
		return b, nil

	default:
		return nil, errors.New("selector is empty")
	}
}

// query converts the media spec condition, leaving nested rules to Build.
func (m *MediaSpec) query() stylesheet.MediaQuery {
	q := stylesheet.MediaQuery{Type: m.Type, Negated: m.Negated}
	for _, f := range m.Features {
		q.Features = append(q.Features, stylesheet.MediaFeature{Name: f.Name, Value: f.Value, Negated: f.Negated})
	}
	return q
}
