// Package preview renders post bodies written in Markdown: sanitized HTML for
// the API and a plain-text excerpt for the terminal.
package preview

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	md     = goldmark.New(goldmark.WithExtensions(extension.GFM))
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// HTML converts Markdown to HTML and strips anything unsafe, such as script
// tags or javascript: links.
func HTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return ugc.Sanitize(buf.String()), nil
}

// Text renders Markdown as plain text with whitespace collapsed, cut to at
// most width cells. Zero width means no limit.
func Text(src string, width int) string {
	rendered, err := HTML(src)
	if err != nil {
		rendered = src
	}
	// Block ends become spaces so paragraphs do not run together.
	rendered = strings.NewReplacer("</p>", " ", "</li>", " ", "<br>", " ", "</h1>", " ", "</h2>", " ", "</h3>", " ").Replace(rendered)
	plain := html.UnescapeString(strict.Sanitize(rendered))
	plain = strings.Join(strings.Fields(plain), " ")
	if width > 0 && ansi.StringWidth(plain) > width {
		plain = ansi.Truncate(plain, width, "…")
	}
	return plain
}

// Lines wraps the plain text of src to width, for detail views.
func Lines(src string, width int) []string {
	var out []string
	for _, para := range strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n\n") {
		text := Text(para, 0)
		if text == "" {
			continue
		}
		if len(out) > 0 {
			out = append(out, "")
		}
		out = append(out, strings.Split(ansi.Wordwrap(text, width, ""), "\n")...)
	}
	return out
}
