package validator

import (
	"bytes"
	"mime"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type contentKind int

const (
	kindHTML contentKind = iota
	kindText
	kindDocument
	kindOther
)

func classifyContentType(header string) contentKind {
	if header == "" {
		return kindHTML
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(header, ";", 2)[0]))
	}
	switch {
	case strings.Contains(mediaType, "html"):
		return kindHTML
	case mediaType == "text/plain":
		return kindText
	case mediaType == "application/pdf",
		mediaType == "application/msword",
		strings.HasPrefix(mediaType, "application/vnd.openxmlformats-officedocument"):
		return kindDocument
	default:
		return kindOther
	}
}

// page is the readable part of an HTML response.
type page struct {
	title string
	text  string
}

var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Head:     true,
	atom.Iframe:   true,
}

// parsePage extracts the <title> and the visible body text with whitespace
// collapsed. The html parser is lenient, so malformed markup still yields
// whatever text it can recover.
func parsePage(body []byte) page {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return page{}
	}

	var p page
	var text strings.Builder
	var walk func(n *html.Node, inBody bool)
	walk = func(n *html.Node, inBody bool) {
		if n.Type == html.ElementNode {
			if n.DataAtom == atom.Title && p.title == "" {
				p.title = collapseSpace(nodeText(n))
				return
			}
			if n.DataAtom == atom.Body {
				inBody = true
			}
			if skippedElements[n.DataAtom] {
				// <head> still holds the <title>.
				if n.DataAtom == atom.Head {
					for c := n.FirstChild; c != nil; c = c.NextSibling {
						walk(c, false)
					}
				}
				return
			}
		}
		if n.Type == html.TextNode && inBody {
			text.WriteString(n.Data)
			text.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inBody)
		}
	}
	walk(doc, false)

	p.text = collapseSpace(text.String())
	return p
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var notFoundMarkers = []string{
	"page not found",
	"404",
	"page cannot be found",
	"page does not exist",
}

func hasNotFoundMarker(s string) bool {
	s = strings.ToLower(s)
	for _, m := range notFoundMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// leadingRunes returns at most n runes from the start of s.
func leadingRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
