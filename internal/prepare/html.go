package prepare

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// blockElements end a line of extracted text
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "table": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "pre": true, "blockquote": true, "hr": true,
	"ul": true, "ol": true, "dt": true, "dd": true,
}

// LooksLikeHTML reports whether a document is HTML markup
func LooksLikeHTML(text string) bool {
	head := strings.ToLower(strings.TrimSpace(text))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<html") ||
		strings.Contains(head, "<body")
}

// ExtractText returns the visible text of an HTML document, one line per
// block element, skipping scripts and styles.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	lineStart, space := true, false
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				if !lineStart && (space || startsWithSpace(n.Data)) {
					buf.WriteString(" ")
				}
				buf.WriteString(text)
				lineStart = false
				space = endsWithSpace(n.Data)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] && !lineStart {
			buf.WriteString("\n")
			lineStart = true
		}
	}
	walk(doc)

	if !lineStart {
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s, " \t\r\n") != s
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s, " \t\r\n") != s
}
