package recipe

import (
	"strings"
	"testing"

	"cssg/config"
)

func setupTestRecipe() *Recipe {
	return &Recipe{
		Version: Version,
		Metadata: Metadata{
			ID:     "0190b5a8-3f21-7c4e-9f1a-2b3c4d5e6f70",
			Name:   "Site Theme",
			Author: "Jane Doe",
		},
		Rules:   []RuleSpec{{Name: "heading"}, {Name: "body"}},
		SrcName: "themes/site.yaml",
	}
}

func TestExpandTemplate_SimpleText(t *testing.T) {
	rcp := setupTestRecipe()

	result, err := rcp.ExpandTemplate(config.OutputNameTemplateFieldName, "simple-text", config.OutputFmtCSS)
	if err != nil {
		t.Fatalf("ExpandTemplate() error = %v", err)
	}
	if result != "simple-text" {
		t.Errorf("ExpandTemplate() = %q, want %q", result, "simple-text")
	}
}

func TestExpandTemplate_Values(t *testing.T) {
	rcp := setupTestRecipe()

	tests := []struct {
		name  string
		field string
		want  string
	}{
		{"name", "{{ .Name }}", "Site Theme"},
		{"author", "{{ .Author }}", "Jane Doe"},
		{"id", "{{ .ID }}", "0190b5a8-3f21-7c4e-9f1a-2b3c4d5e6f70"},
		{"format", "{{ .Format }}", "css"},
		{"source file stem", "{{ .SourceFile }}", "site"},
		{"rule count", "{{ .Rules }}", "2"},
		{"context", "{{ .Context }}", string(config.OutputNameTemplateFieldName)},
		{"combined", "{{ .Name }}-{{ .Format }}", "Site Theme-css"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := rcp.ExpandTemplate(config.OutputNameTemplateFieldName, tc.field, config.OutputFmtCSS)
			if err != nil {
				t.Fatalf("ExpandTemplate() error = %v", err)
			}
			if result != tc.want {
				t.Errorf("ExpandTemplate() = %q, want %q", result, tc.want)
			}
		})
	}
}

func TestExpandTemplate_SprigFunctions(t *testing.T) {
	rcp := setupTestRecipe()

	result, err := rcp.ExpandTemplate(config.OutputNameTemplateFieldName, `{{ .Name | lower | replace " " "-" }}`, config.OutputFmtPreview)
	if err != nil {
		t.Fatalf("ExpandTemplate() error = %v", err)
	}
	if result != "site-theme" {
		t.Errorf("ExpandTemplate() = %q, want %q", result, "site-theme")
	}
}

func TestExpandTemplate_PreviewFormat(t *testing.T) {
	rcp := setupTestRecipe()

	result, err := rcp.ExpandTemplate(config.PreviewTitleTemplateFieldName, "{{ .Name }} - {{ .Format }}", config.OutputFmtPreview)
	if err != nil {
		t.Fatalf("ExpandTemplate() error = %v", err)
	}
	if result != "Site Theme - preview" {
		t.Errorf("ExpandTemplate() = %q, want %q", result, "Site Theme - preview")
	}
}

func TestExpandTemplate_ParseError(t *testing.T) {
	rcp := setupTestRecipe()

	_, err := rcp.ExpandTemplate(config.OutputNameTemplateFieldName, "{{ .Name", config.OutputFmtCSS)
	if err == nil {
		t.Fatal("Expected error for unparsable template, got nil")
	}
	if !strings.Contains(err.Error(), "unable to parse template field") {
		t.Errorf("Expected parse error, got: %v", err)
	}
}

func TestExpandTemplate_ExecuteError(t *testing.T) {
	rcp := setupTestRecipe()

	_, err := rcp.ExpandTemplate(config.OutputNameTemplateFieldName, "{{ .Missing }}", config.OutputFmtCSS)
	if err == nil {
		t.Fatal("Expected error for unknown value, got nil")
	}
}
