// Package preview turns a built stylesheet into a standalone XHTML page:
// the sheet is embedded inline and sample markup is synthesized from the
// recipe rules, so a recipe can be checked in a browser without a host
// document.
package preview

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"cssg/config"
	"cssg/recipe"
	"cssg/stylesheet"
)

// voidElements lists tags that cannot carry sample text.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Generate creates the XHTML preview output file.
func Generate(ctx context.Context, rcp *recipe.Recipe, sheet *stylesheet.Stylesheet, outputPath string, cfg *config.PreviewConfig, log *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	log.Info("Generating preview", zap.String("output", outputPath))

	title, err := rcp.ExpandTemplate(config.PreviewTitleTemplateFieldName, cfg.TitleTemplate, config.OutputFmtPreview)
	if err != nil {
		log.Warn("Unable to prepare preview title", zap.Error(err))
		title = ""
	}
	if title == "" {
		title = rcp.Metadata.Name
	}
	if title == "" {
		title = filepath.Base(rcp.SrcName)
	}

	doc, body := createDocument(title, sheet.String())
	populateBody(body, rcp, title, cfg.SampleText)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	doc.Indent(2)
	if err := doc.WriteToFile(outputPath); err != nil {
		return fmt.Errorf("unable to write preview: %w", err)
	}
	return nil
}

// createDocument builds the XHTML skeleton with the stylesheet embedded
// inline. CDATA keeps the CSS text readable, selector combinators would
// otherwise come out entity-escaped.
func createDocument(title, css string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	html := doc.CreateElement("html")
	html.CreateAttr("xmlns", "http://www.w3.org/1999/xhtml")

	head := html.CreateElement("head")

	meta := head.CreateElement("meta")
	meta.CreateAttr("http-equiv", "Content-Type")
	meta.CreateAttr("content", "text/html; charset=utf-8")

	titleElem := head.CreateElement("title")
	titleElem.SetText(title)

	style := head.CreateElement("style")
	style.CreateAttr("type", "text/css")
	style.CreateCData("\n" + css)

	body := html.CreateElement("body")
	return doc, body
}

// populateBody adds a heading plus one sample element per recipe rule
// (media block rules included), so every selector has markup to match.
func populateBody(body *etree.Element, rcp *recipe.Recipe, title, sampleText string) {
	heading := body.CreateElement("h1")
	heading.SetText(title)

	scope := rcp.Scope()
	for _, rule := range sampleRules(rcp) {
		if elem := appendSample(body, &rule.Selector, scope); elem != nil && !voidElements[elem.Tag] {
			elem.SetText(sampleText)
		}
	}
}

// sampleRules returns all rule specs of the recipe, top-level first, then
// media block rules in document order.
func sampleRules(rcp *recipe.Recipe) []recipe.RuleSpec {
	rules := slices.Clone(rcp.Rules)
	for _, m := range rcp.Media {
		rules = append(rules, m.Rules...)
	}
	return rules
}

// appendSample creates markup matching the selector spec under parent and
// returns the element sample text should go into. Child and descendant
// combinators nest, sibling combinators stay on one level. Raw selectors
// carry no structure to derive markup from and are skipped.
func appendSample(parent *etree.Element, spec *recipe.SelectorSpec, scope stylesheet.Scope) *etree.Element {
	if spec == nil {
		return nil
	}

	if spec.Combinator != "" || spec.Left != nil || spec.Right != nil {
		host := parent
		nested := spec.Combinator == ">" || strings.TrimSpace(spec.Combinator) == ""
		if left := appendSample(parent, spec.Left, scope); left != nil && nested {
			host = left
		}
		return appendSample(host, spec.Right, scope)
	}

	if spec.Raw != "" {
		return nil
	}

	tag := spec.Element
	if tag == "" {
		tag = "div"
	}
	elem := parent.CreateElement(tag)
	if spec.ID != "" {
		elem.CreateAttr("id", spec.ID)
	}
	if len(spec.Classes) > 0 {
		classes := make([]string, 0, len(spec.Classes))
		for _, class := range spec.Classes {
			classes = append(classes, scope.Apply(class))
		}
		elem.CreateAttr("class", strings.Join(classes, " "))
	}
	for _, expr := range spec.Attributes {
		if name, value := sampleAttr(expr); name != "" {
			elem.CreateAttr(name, value)
		}
	}
	return elem
}

// sampleAttr derives a concrete attribute from a selector attribute
// expression so the sample element actually matches: `href$=".png"` yields
// href=".png", bare `disabled` yields disabled="disabled".
func sampleAttr(expr string) (string, string) {
	name, value, found := strings.Cut(expr, "=")
	name = strings.TrimRight(strings.TrimSpace(name), "~|^$*")
	if name == "" {
		return "", ""
	}
	if !found {
		return name, name
	}
	return name, strings.Trim(strings.TrimSpace(value), `"'`)
}
