package stylesheet

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Scope isolates generated class names by attaching a short suffix, so
// several generated sheets can coexist on one page without collisions.
type Scope struct {
	suffix string
}

// NewScope returns a scope with a fresh random suffix.
func NewScope() (Scope, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Scope{}, fmt.Errorf("unable to generate scope suffix: %w", err)
	}
	// the last UUID group carries the random bits, the leading groups are
	// time-ordered and collide across scopes created close together
	groups := strings.Split(id.String(), "-")
	return Scope{suffix: groups[len(groups)-1]}, nil
}

// ScopeFor returns a scope with a caller-chosen suffix, for deterministic
// output.
func ScopeFor(suffix string) Scope {
	return Scope{suffix: suffix}
}

// Suffix returns the scope suffix, empty for the zero scope.
func (s Scope) Suffix() string { return s.suffix }

// IsZero reports whether the scope applies no suffix.
func (s Scope) IsZero() bool { return s.suffix == "" }

// Apply returns the class name with the scope suffix attached. The zero
// scope returns the name unchanged.
func (s Scope) Apply(class string) string {
	if s.suffix == "" {
		return class
	}
	return class + "-" + s.suffix
}
