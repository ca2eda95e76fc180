package selector

import (
	"fmt"

	"go.uber.org/multierr"
)

// Common combinator tokens. Combine accepts any token verbatim - these only
// cover the usual cases.
const (
	Child           = ">"
	AdjacentSibling = "+"
	GeneralSibling  = "~"
)

// Selector is the shared render contract. Builders and combined selectors
// both satisfy it, so combined values nest freely.
type Selector interface {
	Render() (string, error)
}

// Combined joins two selectors with a combinator token.
type Combined struct {
	left       Selector
	combinator string
	right      Selector
}

// Combine pairs left and right with the given combinator token. The token
// is not validated - any literal is inserted verbatim between the rendered
// sides. Either side may itself come from a previous Combine call.
func Combine(left Selector, combinator string, right Selector) Combined {
	return Combined{left: left, combinator: combinator, right: right}
}

// Render returns the rendered left side, the combinator token and the
// rendered right side joined with single spaces. Failures from both sides
// are aggregated.
func (c Combined) Render() (string, error) {
	left, lerr := renderSide(c.left, "left")
	right, rerr := renderSide(c.right, "right")
	if err := multierr.Append(lerr, rerr); err != nil {
		return "", err
	}
	return left + " " + c.combinator + " " + right, nil
}

func renderSide(s Selector, side string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("%s side of combined selector is missing", side)
	}
	text, err := s.Render()
	if err != nil {
		return "", fmt.Errorf("%s side of combined selector: %w", side, err)
	}
	return text, nil
}

// Raw adapts selector text that is already rendered (or authored by hand)
// to the Selector contract, letting it participate in Combine and rule
// construction unchanged.
type Raw string

// Render returns the string itself, always without error.
func (r Raw) Render() (string, error) { return string(r), nil }
