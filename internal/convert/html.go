// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLText parses markup into a DOM and collects visible text nodes.
type HTMLText struct{}

// Name returns the method identifier.
func (HTMLText) Name() string { return "html-dom" }

// skipped elements never contribute visible text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
}

// blocks end a line of text.
var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Tr: true, atom.Section: true, atom.Article: true, atom.Header: true,
	atom.Footer: true, atom.Title: true, atom.Blockquote: true, atom.Pre: true,
}

// Convert walks the parsed document in order.
func (HTMLText) Convert(ctx context.Context, raw []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				b.WriteString(s)
				b.WriteByte(' ')
			}
			return
		case html.ElementNode:
			if skipped[n.DataAtom] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blocks[n.DataAtom] {
			b.WriteByte('\n')
		}
	}
	walk(doc)
	return tidyLines(b.String()), nil
}

// TagStrip removes tags with regular expressions. It tolerates markup that
// is too broken for the DOM walk to yield readable text.
type TagStrip struct{}

// Name returns the method identifier.
func (TagStrip) Name() string { return "html-strip" }

var (
	reInvisible = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	reComment   = regexp.MustCompile(`(?s)<!--.*?-->`)
	reBlockTag  = regexp.MustCompile(`(?i)</?(p|div|br|li|h[1-6]|tr|title)[^>]*>`)
	reTag       = regexp.MustCompile(`<[^>]+>`)
)

// Convert strips markup and decodes entities.
func (TagStrip) Convert(ctx context.Context, raw []byte) (string, error) {
	s := string(raw)
	s = reInvisible.ReplaceAllString(s, " ")
	s = reComment.ReplaceAllString(s, " ")
	s = reBlockTag.ReplaceAllString(s, "\n")
	s = reTag.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return tidyLines(s), nil
}

// PlainText accepts raw bytes that are already text.
type PlainText struct{}

// Name returns the method identifier.
func (PlainText) Name() string { return "plain" }

// Convert returns raw as a string after checking it is UTF-8.
func (PlainText) Convert(ctx context.Context, raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("text is not valid UTF-8: %w", ErrCorrupted)
	}
	return string(raw), nil
}

// tidyLines collapses runs of spaces inside each line and drops blank lines.
func tidyLines(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if f := strings.Fields(line); len(f) > 0 {
			out = append(out, strings.Join(f, " "))
		}
	}
	return strings.Join(out, "\n")
}
