// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// markupDoc holds the parts of an HTML page the strategies read.
type markupDoc struct {
	raw       string
	metas     map[string][]string
	title     string
	h1        string
	jsonLD    []string
	authorEls []string
}

// parseMarkup walks the DOM once. It returns nil for empty input.
func parseMarkup(raw string) *markupDoc {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return &markupDoc{raw: raw, metas: map[string][]string{}}
	}

	d := &markupDoc{raw: raw, metas: map[string][]string{}}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Meta:
				key := strings.ToLower(attr(n, "name"))
				if key == "" {
					key = strings.ToLower(attr(n, "property"))
				}
				if v := attr(n, "content"); key != "" && strings.TrimSpace(v) != "" {
					d.metas[key] = append(d.metas[key], v)
				}
			case atom.Title:
				if d.title == "" {
					d.title = textContent(n)
				}
			case atom.H1:
				if d.h1 == "" {
					d.h1 = textContent(n)
				}
			case atom.Script:
				if strings.EqualFold(attr(n, "type"), "application/ld+json") {
					d.jsonLD = append(d.jsonLD, textContent(n))
				}
				return
			case atom.Span, atom.Div, atom.P, atom.A:
				if strings.Contains(strings.ToLower(attr(n, "class")), "author") {
					d.authorEls = append(d.authorEls, textContent(n))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return d
}

// meta returns the values of the named meta tags in the order given.
func (d *markupDoc) meta(names ...string) []string {
	if d == nil {
		return nil
	}
	var out []string
	for _, name := range names {
		out = append(out, d.metas[name]...)
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// textContent concatenates the text beneath n.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			return
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
