package config

import (
	"fmt"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Specification of requested output type.
type OutputFmt int

const (
	OutputFmtCSS OutputFmt = iota
	OutputFmtPreview
)

var (
	outputFmtNames = []string{"css", "preview"}

	outputFmtValues = map[string]OutputFmt{
		"css":     OutputFmtCSS,
		"preview": OutputFmtPreview,
	}
)

// OutputFmtNames returns the list of possible string values of OutputFmt.
func OutputFmtNames() []string {
	names := make([]string, len(outputFmtNames))
	copy(names, outputFmtNames)
	return names
}

func (o OutputFmt) IsValid() bool {
	return o >= 0 && int(o) < len(outputFmtNames)
}

func (o OutputFmt) String() string {
	if !o.IsValid() {
		return fmt.Sprintf("OutputFmt(%d)", int(o))
	}
	return outputFmtNames[o]
}

// ParseOutputFmt converts a name to OutputFmt, ignoring case.
func ParseOutputFmt(name string) (OutputFmt, error) {
	if o, ok := outputFmtValues[strings.ToLower(name)]; ok {
		return o, nil
	}
	return OutputFmt(0), fmt.Errorf("%q is not a valid OutputFmt, try [%s]", name, strings.Join(outputFmtNames, ", "))
}

// MustParseOutputFmt converts a name to OutputFmt, panicking on bad input.
func MustParseOutputFmt(name string) OutputFmt {
	o, err := ParseOutputFmt(name)
	if err != nil {
		panic(err)
	}
	return o
}

func (o OutputFmt) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *OutputFmt) UnmarshalText(text []byte) error {
	parsed, err := ParseOutputFmt(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// yaml.v3 does not use encoding.TextUnmarshaler for scalars, so yaml
// interfaces are implemented explicitly.

func (o OutputFmt) MarshalYAML() (any, error) {
	return o.String(), nil
}

func (o *OutputFmt) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	return o.UnmarshalText([]byte(name))
}

// Ext returns the extension (with dot) used for generated files of this type.
func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtCSS:
		return ".css"
	case OutputFmtPreview:
		return ".xhtml"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// Specification of generated rule ordering.
type RuleSort int

const (
	RuleSortAuthored RuleSort = iota
	RuleSortNatural
)

var (
	ruleSortNames = []string{"authored", "natural"}

	ruleSortValues = map[string]RuleSort{
		"authored": RuleSortAuthored,
		"natural":  RuleSortNatural,
	}
)

// RuleSortNames returns the list of possible string values of RuleSort.
func RuleSortNames() []string {
	names := make([]string, len(ruleSortNames))
	copy(names, ruleSortNames)
	return names
}

func (r RuleSort) IsValid() bool {
	return r >= 0 && int(r) < len(ruleSortNames)
}

func (r RuleSort) String() string {
	if !r.IsValid() {
		return fmt.Sprintf("RuleSort(%d)", int(r))
	}
	return ruleSortNames[r]
}

// ParseRuleSort converts a name to RuleSort, ignoring case.
func ParseRuleSort(name string) (RuleSort, error) {
	if r, ok := ruleSortValues[strings.ToLower(name)]; ok {
		return r, nil
	}
	return RuleSort(0), fmt.Errorf("%q is not a valid RuleSort, try [%s]", name, strings.Join(ruleSortNames, ", "))
}

func (r RuleSort) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *RuleSort) UnmarshalText(text []byte) error {
	parsed, err := ParseRuleSort(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r RuleSort) MarshalYAML() (any, error) {
	return r.String(), nil
}

func (r *RuleSort) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	return r.UnmarshalText([]byte(name))
}
