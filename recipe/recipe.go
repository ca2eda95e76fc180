// Package recipe reads YAML stylesheet recipes and turns them into
// stylesheets. A recipe carries metadata plus declarative specs for
// imports, font faces, raw snippets, rules and media blocks; Build walks
// the specs through the selector builder and assembles the final sheet.
package recipe

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"cssg/stylesheet"
)

// Version is the recipe schema version this build understands.
const Version = 1

// Metadata identifies a recipe. ID is a UUID, repaired during Prepare when
// missing or unparsable.
type Metadata struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Author string `yaml:"author"`
}

// FontFaceSpec describes one @font-face block.
type FontFaceSpec struct {
	Family string `yaml:"family"`
	Src    string `yaml:"src"`
	Style  string `yaml:"style"`
	Weight string `yaml:"weight"`
}

// SelectorSpec describes one selector. It takes exactly one of three
// shapes: simple (any of the part fields), combined (combinator plus left
// and right sub-specs, which nest freely) or raw (verbatim selector text).
type SelectorSpec struct {
	Element       string   `yaml:"element"`
	ID            string   `yaml:"id"`
	Classes       []string `yaml:"classes"`
	Attributes    []string `yaml:"attributes"`
	PseudoClasses []string `yaml:"pseudo_classes"`
	PseudoElement string   `yaml:"pseudo_element"`

	Combinator string        `yaml:"combinator"`
	Left       *SelectorSpec `yaml:"left"`
	Right      *SelectorSpec `yaml:"right"`

	Raw string `yaml:"raw"`
}

// Declarations keeps property/value pairs in authored order. The order is
// meaningful to the cascade and YAML mappings decode to Go maps which lose
// it, so decoding is done by hand off the document node.
type Declarations []stylesheet.Declaration

// UnmarshalYAML accepts either a mapping (the common case) or a sequence of
// single-pair mappings, which additionally allows repeated properties for
// CSS-style fallbacks.
func (d *Declarations) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.MappingNode:
		out, err := declarationsFromMapping(value)
		if err != nil {
			return err
		}
		*d = out
	case yaml.SequenceNode:
		out := make(Declarations, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
				return fmt.Errorf("line %d: declaration list items must be single property to value pairs", item.Line)
			}
			pair, err := declarationsFromMapping(item)
			if err != nil {
				return err
			}
			out = append(out, pair...)
		}
		*d = out
	default:
		return fmt.Errorf("line %d: declarations must be a mapping or a list of pairs", value.Line)
	}
	return nil
}

func declarationsFromMapping(node *yaml.Node) (Declarations, error) {
	out := make(Declarations, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: declaration properties and values must be scalars", k.Line)
		}
		out = append(out, stylesheet.Declaration{Property: k.Value, Value: v.Value})
	}
	return out, nil
}

// RuleSpec describes one style rule. Name is optional and only used in
// diagnostics.
type RuleSpec struct {
	Name         string       `yaml:"name"`
	Selector     SelectorSpec `yaml:"selector"`
	Declarations Declarations `yaml:"declarations"`
}

// FeatureSpec describes one feature condition of a media query.
type FeatureSpec struct {
	Name    string `yaml:"name"`
	Value   string `yaml:"value"`
	Negated bool   `yaml:"negated"`
}

// MediaSpec describes one @media block with its nested rules.
type MediaSpec struct {
	Type     string        `yaml:"type"`
	Negated  bool          `yaml:"negated"`
	Features []FeatureSpec `yaml:"features"`
	Rules    []RuleSpec    `yaml:"rules"`
}

// Recipe is a parsed stylesheet recipe.
type Recipe struct {
	Version   int            `yaml:"version"`
	Metadata  Metadata       `yaml:"metadata"`
	Scoped    bool           `yaml:"scoped"`
	Imports   []string       `yaml:"imports"`
	FontFaces []FontFaceSpec `yaml:"font_faces"`
	Raw       []string       `yaml:"raw"`
	Rules     []RuleSpec     `yaml:"rules"`
	Media     []MediaSpec    `yaml:"media"`

	// SrcName is the path the recipe was read from, kept for diagnostics
	// and template expansion.
	SrcName string `yaml:"-"`

	scope stylesheet.Scope
}

// Prepare reads, parses and prepares a recipe for building.
func Prepare(ctx context.Context, r io.Reader, srcName string, log *zap.Logger) (*Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rcp := &Recipe{}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(rcp); err != nil {
		return nil, fmt.Errorf("unable to parse recipe: %w", err)
	}
	if rcp.Version != Version {
		return nil, fmt.Errorf("unsupported recipe version %d, supported version is %d", rcp.Version, Version)
	}

	// Make sure recipe ID is not empty and is valid UUID
	var refID uuid.UUID
	if _, err := uuid.Parse(rcp.Metadata.ID); err != nil {
		if refID, err = uuid.NewV7(); err != nil {
			return nil, fmt.Errorf("unable to generate new recipe UUID: %w", err)
		}
		log.Warn("Recipe has invalid ID, correcting", zap.String("old_id", rcp.Metadata.ID), zap.Stringer("new_id", refID))
	}
	if refID != uuid.Nil {
		rcp.Metadata.ID = refID.String()
	}

	rcp.SrcName = srcName
	return rcp, nil
}

// Scope returns the class scope the last Build used, so generated markup can
// reference scoped class names. Zero until a scoped recipe is built.
func (r *Recipe) Scope() stylesheet.Scope {
	return r.scope
}
