package notes

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// RenderHTML converts the note content from markdown to an HTML fragment
func RenderHTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderDocument renders a note as a standalone HTML page with its title as heading
func RenderDocument(n Note) (string, error) {
	body, err := RenderHTML(n.Content)
	if err != nil {
		return "", fmt.Errorf("render note %s: %w", n.ID, err)
	}

	title := html.EscapeString(n.DisplayTitle())

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "<title>%s</title>\n</head>\n<body>\n<h1>%s</h1>\n", title, title)
	buf.WriteString(body)
	buf.WriteString("</body>\n</html>\n")
	return buf.String(), nil
}
