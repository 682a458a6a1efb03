package ingest

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// mainContent parses rawHTML and returns the serialized main content
// subtree. Semantic landmarks win: <article>, <main>, or role="main". When
// none exists the whole <body> is used, minus obvious boilerplate.
func mainContent(rawHTML string) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	if n := findLandmark(doc); n != nil {
		return renderNode(n), nil
	}
	if body := findElement(doc, atom.Body); body != nil {
		return renderNode(body), nil
	}
	return renderNode(doc), nil
}

func findLandmark(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		if n.DataAtom == atom.Article || n.DataAtom == atom.Main {
			return n
		}
		for _, a := range n.Attr {
			if a.Key == "role" && a.Val == "main" {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findLandmark(c); found != nil {
			return found
		}
	}
	return nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// Boilerplate containers never carry corpus prose.
var boilerplate = map[atom.Atom]bool{
	atom.Nav:    true,
	atom.Header: true,
	atom.Footer: true,
	atom.Aside:  true,
	atom.Script: true,
	atom.Style:  true,
}

func renderNode(n *html.Node) string {
	var b strings.Builder
	renderFiltered(&b, n)
	return b.String()
}

// renderFiltered serializes the subtree while skipping boilerplate elements.
func renderFiltered(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode && boilerplate[n.DataAtom] {
		return
	}

	clone := &html.Node{
		Type:     n.Type,
		DataAtom: n.DataAtom,
		Data:     n.Data,
		Attr:     n.Attr,
	}
	if n.Type == html.TextNode || n.FirstChild == nil {
		html.Render(b, clone)
		return
	}

	// Render the open tag, recurse, render the close tag by hand so the
	// filter applies at every depth.
	if n.Type == html.ElementNode {
		b.WriteString("<" + n.Data)
		for _, a := range n.Attr {
			b.WriteString(" " + a.Key + `="` + html.EscapeString(a.Val) + `"`)
		}
		b.WriteString(">")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderFiltered(b, c)
	}
	if n.Type == html.ElementNode {
		b.WriteString("</" + n.Data + ">")
	}
}
