package stylesheet_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"cssg/selector"
	"cssg/stylesheet"
)

func TestWriteRule(t *testing.T) {
	var s stylesheet.Stylesheet
	s.AddRule(selector.New().ID("main").Class("container").Class("editable"),
		stylesheet.Declaration{Property: "color", Value: "#333"},
		stylesheet.Declaration{Property: "margin", Value: "0 auto"},
	)

	want := "#main.container.editable {\n  color: #333;\n  margin: 0 auto;\n}\n"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDeclarationsKeepAuthoredOrder(t *testing.T) {
	var s stylesheet.Stylesheet
	s.AddRule(selector.New().Element("p"),
		stylesheet.Declaration{Property: "margin", Value: "1em 0"},
		stylesheet.Declaration{Property: "margin-top", Value: "0"},
		stylesheet.Declaration{Property: "color", Value: "black"},
	)

	out := s.String()
	marginIdx := strings.Index(out, "margin:")
	marginTopIdx := strings.Index(out, "margin-top:")
	colorIdx := strings.Index(out, "color:")
	if marginIdx == -1 || marginTopIdx == -1 || colorIdx == -1 {
		t.Fatalf("missing declarations in output:\n%s", out)
	}
	// cascade order matters: margin-top override must stay after margin
	if !(marginIdx < marginTopIdx && marginTopIdx < colorIdx) {
		t.Errorf("declarations reordered:\n%s", out)
	}
}

func TestWriteItems(t *testing.T) {
	var s stylesheet.Stylesheet
	s.AddImport("fonts/base.css")
	s.AddFontFace(stylesheet.FontFace{
		Family: `Custom "Serif"`,
		Src:    `url("fonts/custom.woff2")`,
		Style:  "normal",
		Weight: "400",
	})
	s.AddRule(selector.New().Element("a").Attr(`href$=".png"`).PseudoClass("focus"),
		stylesheet.Declaration{Property: "outline", Value: "1px dotted"},
	)
	s.AddRaw("/* passthrough */\nbody { margin: 0; }")

	got := s.String()
	want := `@import url("fonts/base.css");

@font-face {
  font-family: "Custom \"Serif\"";
  src: url("fonts/custom.woff2");
  font-style: normal;
  font-weight: 400;
}

a[href$=".png"]:focus {
  outline: 1px dotted;
}

/* passthrough */
body { margin: 0; }
`
	if got != want {
		t.Errorf("String() =\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteMediaBlock(t *testing.T) {
	var s stylesheet.Stylesheet
	mb := s.AddMedia(stylesheet.MediaQuery{
		Type: "screen",
		Features: []stylesheet.MediaFeature{
			{Name: "min-width", Value: "600px"},
		},
	})
	mb.AddRule(selector.New().Element("nav"), stylesheet.Declaration{Property: "display", Value: "flex"})
	mb.AddRule(selector.New().Class("sidebar"), stylesheet.Declaration{Property: "width", Value: "240px"})

	want := `@media screen and (min-width: 600px) {
  nav {
    display: flex;
  }

  .sidebar {
    width: 240px;
  }
}
`
	if got := s.String(); got != want {
		t.Errorf("String() =\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteCombinedSelectorRule(t *testing.T) {
	var s stylesheet.Stylesheet
	left := selector.New().Element("p").PseudoClass("focus")
	right := selector.New().Element("div")
	s.AddRule(selector.Combine(left, selector.AdjacentSibling, right),
		stylesheet.Declaration{Property: "border", Value: "none"},
	)

	want := "p:focus + div {\n  border: none;\n}\n"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestWriteToReportsSelectorErrors(t *testing.T) {
	var s stylesheet.Stylesheet
	s.AddRule(selector.New().ID("x").Element("div"),
		stylesheet.Declaration{Property: "color", Value: "red"},
	)

	_, err := s.WriteTo(io.Discard)
	if !errors.Is(err, selector.ErrOrderViolation) {
		t.Errorf("WriteTo() error = %v, want ErrOrderViolation", err)
	}
}

func TestWriteToMissingSelector(t *testing.T) {
	s := stylesheet.Stylesheet{Items: []stylesheet.Item{{Rule: &stylesheet.Rule{}}}}
	if _, err := s.WriteTo(io.Discard); err == nil {
		t.Error("WriteTo() expected error for rule without selector")
	}
}

func TestAccessors(t *testing.T) {
	var s stylesheet.Stylesheet
	s.AddImport("a.css")
	s.AddFontFace(stylesheet.FontFace{Family: "One", Src: "url(one.woff)"})
	s.AddFontFace(stylesheet.FontFace{Src: "url(anonymous.woff)"}) // no family, skipped
	s.AddRule(selector.New().Element("p"))
	s.AddImport("b.css")

	if got := s.Imports(); len(got) != 2 || got[0] != "a.css" || got[1] != "b.css" {
		t.Errorf("Imports() = %v, want [a.css b.css]", got)
	}
	if got := s.FontFaces(); len(got) != 1 || got[0].Family != "One" {
		t.Errorf("FontFaces() = %v, want the single named face", got)
	}
	if got := s.Rules(); len(got) != 1 {
		t.Errorf("Rules() = %d rules, want 1", len(got))
	}
}

// The generated text must be real CSS. Run it through the tdewolff grammar
// parser and make sure it consumes the whole sheet without complaints.
func TestRenderedSheetParsesCleanly(t *testing.T) {
	var s stylesheet.Stylesheet
	s.AddImport("base.css")
	s.AddFontFace(stylesheet.FontFace{Family: "Deco", Src: `url("deco.woff2")`, Weight: "700"})
	s.AddRule(selector.New().Element("div").ID("app").Class("nav").Attr("data-open").PseudoClass("hover").PseudoElement("before"),
		stylesheet.Declaration{Property: "content", Value: `"\2014"`},
		stylesheet.Declaration{Property: "color", Value: "rgb(20, 20, 20)"},
	)
	mb := s.AddMedia(stylesheet.MediaQuery{
		Type:     "screen",
		Features: []stylesheet.MediaFeature{{Name: "min-width", Value: "600px"}, {Name: "orientation", Value: "landscape"}},
	})
	mb.AddRule(selector.Combine(selector.New().Element("ul"), selector.Child, selector.New().Element("li")),
		stylesheet.Declaration{Property: "margin", Value: "0"},
	)

	out := s.String()

	p := css.NewParser(parse.NewInputString(out), false)
	var rulesets, atRules int
	for {
		gt, _, _ := p.Next()
		if gt == css.ErrorGrammar {
			if err := p.Err(); !errors.Is(err, io.EOF) {
				t.Fatalf("parse error in generated CSS: %v\n%s", err, out)
			}
			break
		}
		switch gt {
		case css.BeginRulesetGrammar:
			rulesets++
		case css.AtRuleGrammar, css.BeginAtRuleGrammar:
			atRules++
		}
	}

	if rulesets != 2 {
		t.Errorf("generated CSS has %d rulesets, want 2:\n%s", rulesets, out)
	}
	if atRules != 3 {
		t.Errorf("generated CSS has %d at-rules, want 3 (@import, @font-face, @media):\n%s", atRules, out)
	}
}
