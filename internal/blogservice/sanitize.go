package blogservice

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	scriptTagRX = regexp.MustCompile(`(?is)<\s*script[^>]*>(.*?)<\s*/\s*script\s*>`)

	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy   = bluemonday.UGCPolicy()
)

// sanitizeMarkdown strips script blocks from stored Markdown. Everything else is kept verbatim
// and only cleaned when rendered.
func sanitizeMarkdown(md string) string {
	return scriptTagRX.ReplaceAllString(md, "")
}

// renderHTML converts Markdown to HTML safe to embed in a page.
func renderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", err
	}

	return policy.Sanitize(buf.String()), nil
}

// readTime is the estimated reading time in whole minutes, rounded up.
func readTime(content string) int {
	words := len(strings.Fields(content))
	return (words + wordsPerMinute - 1) / wordsPerMinute
}
