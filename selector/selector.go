// Package selector builds CSS selector text from typed parts.
//
// A Builder accumulates parts of one compound selector and enforces the
// grammar's part order (element, id, class, attribute, pseudo-class,
// pseudo-element) together with the at-most-once constraint on element and
// pseudo-element. Builders are values: every append returns a new Builder
// and never touches the receiver, so a partially built selector can be kept
// around and extended in several directions, including from concurrent
// goroutines, without coordination.
//
// Protocol violations do not panic. The offending append returns a Builder
// carrying the first error; later appends pass it through untouched and
// Render reports it. Combine joins two selectors (builders or previously
// combined values) with a combinator token.
package selector

import (
	"errors"
	"fmt"
	"strings"
)

// Category identifies one kind of selector part by its required position.
type Category int

const (
	CategoryType Category = iota
	CategoryID
	CategoryClass
	CategoryAttribute
	CategoryPseudoClass
	CategoryPseudoElement

	categoryCount
)

// String returns the category name as it appears in error reporting.
func (c Category) String() string {
	switch c {
	case CategoryType:
		return "element"
	case CategoryID:
		return "id"
	case CategoryClass:
		return "class"
	case CategoryAttribute:
		return "attribute"
	case CategoryPseudoClass:
		return "pseudo-class"
	case CategoryPseudoElement:
		return "pseudo-element"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

var (
	// ErrOrderViolation is reported when a part is appended after a part of
	// a later category has already been used.
	ErrOrderViolation = errors.New("selector parts must follow element, id, class, attribute, pseudo-class, pseudo-element order")

	// ErrDuplicateCategory is reported when a second element or
	// pseudo-element is appended.
	ErrDuplicateCategory = errors.New("element and pseudo-element may occur at most once")
)

// BuildError describes a rejected append. It wraps one of the sentinel
// errors above, so callers can match with errors.Is or pull the detail out
// with errors.As.
type BuildError struct {
	Category Category // category of the rejected part
	Value    string   // literal that was rejected
	Err      error    // ErrOrderViolation or ErrDuplicateCategory
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("cannot append %s %q: %v", e.Category, e.Value, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// slot keeps accumulated text for one category. The used flag is separate
// from the text so empty literals still count as occupying the slot.
type slot struct {
	used bool
	text string
}

// Builder assembles one compound selector. The zero value is an empty,
// ready to use builder.
type Builder struct {
	slots [categoryCount]slot
	err   *BuildError
}

// New returns an empty Builder.
func New() Builder { return Builder{} }

// append implements the shared protocol for all category operations:
// duplicate guard for the unique categories, then the order scan, then
// copy-on-write of the slot array. The receiver is a value, so mutations
// below only ever touch the copy being returned.
func (b Builder) append(cat Category, text, value string) Builder {
	if b.err != nil {
		// first failure wins, later appends change nothing
		return b
	}
	if (cat == CategoryType || cat == CategoryPseudoElement) && b.slots[cat].used {
		b.err = &BuildError{Category: cat, Value: value, Err: ErrDuplicateCategory}
		return b
	}
	for later := cat + 1; later < categoryCount; later++ {
		if b.slots[later].used {
			b.err = &BuildError{Category: cat, Value: value, Err: ErrOrderViolation}
			return b
		}
	}
	b.slots[cat].used = true
	b.slots[cat].text += text
	return b
}

// Element sets the type selector. Text is taken verbatim. At most one
// element is accepted and it has to come before every other part.
func (b Builder) Element(name string) Builder {
	return b.append(CategoryType, name, name)
}

// ID appends an id selector, rendered as "#" + id.
func (b Builder) ID(id string) Builder {
	return b.append(CategoryID, "#"+id, id)
}

// Class appends a class selector, rendered as "." + name. Classes may
// repeat.
func (b Builder) Class(name string) Builder {
	return b.append(CategoryClass, "."+name, name)
}

// Attr appends an attribute selector. The expression is wrapped in brackets
// verbatim - its content is not validated. Attributes may repeat.
func (b Builder) Attr(expr string) Builder {
	return b.append(CategoryAttribute, "["+expr+"]", expr)
}

// PseudoClass appends a pseudo-class selector, rendered as ":" + name.
// Pseudo-classes may repeat.
func (b Builder) PseudoClass(name string) Builder {
	return b.append(CategoryPseudoClass, ":"+name, name)
}

// PseudoElement sets the pseudo-element, rendered as "::" + name. At most
// one is accepted and nothing may follow it.
func (b Builder) PseudoElement(name string) Builder {
	return b.append(CategoryPseudoElement, "::"+name, name)
}

// Err returns the first protocol violation recorded on this builder, or nil.
// It lets callers check a chain before rendering.
func (b Builder) Err() error {
	if b.err != nil {
		return b.err
	}
	return nil
}

// Render returns the selector text: every slot's accumulated text
// concatenated in category order, empty slots contributing nothing. Render
// is a pure projection - it never modifies the builder and repeated calls
// return identical results. A builder carrying a protocol violation renders
// to an empty string and the violation.
func (b Builder) Render() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	var sb strings.Builder
	for _, s := range b.slots {
		sb.WriteString(s.text)
	}
	return sb.String(), nil
}
