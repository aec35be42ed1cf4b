// Package markup moves JSON-LD documents in and out of HTML.
package markup

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ScriptType is the MIME type of an embedded JSON-LD script element.
const ScriptType = "application/ld+json"

// Script wraps a serialized document in a JSON-LD script element.
// An empty document yields an empty string.
func Script(document string) string {
	if document == "" {
		return ""
	}
	return `<script type="` + ScriptType + `">` + document + `</script>`
}

// ExtractScripts returns the contents of every JSON-LD script element in
// an HTML page, in document order.
func ExtractScripts(htmlContent string) []string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	var scripts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" && isJSONLD(n) {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				b.WriteString(c.Data)
			}
			scripts = append(scripts, strings.TrimSpace(b.String()))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return scripts
}

func isJSONLD(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key == "type" && strings.EqualFold(strings.TrimSpace(attr.Val), ScriptType) {
			return true
		}
	}
	return false
}

// PlainText strips tags from an HTML fragment, decodes entities and
// collapses whitespace. Titles and captions from the host system may carry
// inline markup that has no place in structured data.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
		b.WriteByte(' ')
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
