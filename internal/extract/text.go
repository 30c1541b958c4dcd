package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// LoadDocumentText reads a document from disk and returns its plain text.
// Plain text and markdown are returned verbatim; HTML is reduced to visible text.
func LoadDocumentText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".text", "":
		return string(data), nil
	case ".html", ".htm":
		return HTMLToText(string(data))
	default:
		return "", fmt.Errorf("unsupported document type %q", filepath.Ext(path))
	}
}

// HTMLToText extracts visible text from HTML, one line per block element
func HTMLToText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return extractVisibleText(doc), nil
}

// extractVisibleText walks text nodes, skipping scripts/styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder
	var line strings.Builder

	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			buf.WriteString(s)
			buf.WriteString("\n")
		}
		line.Reset()
	}

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
				if line.Len() > 0 {
					line.WriteString(" ")
				}
				line.WriteString(text)
			}
		}

		block := n.Type == html.ElementNode && isBlock(n.Data)
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}

	walk(n)
	flush()
	return buf.String()
}

// isBlock reports whether an element starts a new line of text
func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "br", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6",
		"table", "ul", "ol", "section", "article", "header", "footer", "dd", "dt":
		return true
	}
	return false
}
