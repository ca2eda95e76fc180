package recipe

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"cssg/config"
)

// templateValues is a struct that holds variables we make available for template expansion
type templateValues struct {
	Context    string
	Name       string
	ID         string
	Author     string
	Format     string
	SourceFile string
	Rules      int
}

// ExpandTemplate expands a template string with recipe metadata.
func (r *Recipe) ExpandTemplate(name config.TemplateFieldName, field string, format config.OutputFmt) (string, error) {
	values := &templateValues{
		Context:    string(name),
		Name:       r.Metadata.Name,
		ID:         r.Metadata.ID,
		Author:     r.Metadata.Author,
		Format:     format.String(),
		SourceFile: strings.TrimSuffix(filepath.Base(r.SrcName), filepath.Ext(r.SrcName)),
		Rules:      len(r.Rules),
	}
	return expandTemplate(name, field, values)
}

// expandTemplate is the private implementation that expands a template string with initialized values
func expandTemplate(name config.TemplateFieldName, field string, values *templateValues) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
