package blogservice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeMarkdown(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no script tag",
			input: "Hello, World!",
			want:  "Hello, World!",
		},
		{
			name:  "script tag",
			input: "<script>alert('Hello, World!');</script>",
			want:  "",
		},
		{
			name: "multiple script tags",
			input: "Here is some text.\n<script>alert('Hello, world!');</script>\nMore text.\n" +
				`<SCRIPT SRC="evil.js"></SCRIPT>`,
			want: "Here is some text.\n\nMore text.\n",
		},
		{
			name:  "script spanning lines",
			input: "a<script>\nalert(1)\n</script>b",
			want:  "ab",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			output := sanitizeMarkdown(tc.input)
			assert.Equal(t, tc.want, output)
		})
	}
}

func TestRenderHTML(t *testing.T) {
	testCases := []struct {
		name       string
		input      string
		contains   []string
		notContain []string
	}{
		{
			name:     "heading and emphasis",
			input:    "# Title\n\nSome *text*.",
			contains: []string{"<h1>Title</h1>", "<em>text</em>"},
		},
		{
			name:     "gfm table",
			input:    "| a | b |\n|---|---|\n| 1 | 2 |",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:       "inline handler stripped",
			input:      `<img src="https://example.com/x.png" onerror="alert(1)">`,
			notContain: []string{"onerror", "alert"},
		},
		{
			name:       "javascript link stripped",
			input:      "[click](javascript:alert(1))",
			notContain: []string{"javascript:"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			html, err := renderHTML(tc.input)
			require.NoError(t, err)

			for _, s := range tc.contains {
				assert.Contains(t, html, s)
			}
			for _, s := range tc.notContain {
				assert.NotContains(t, html, s)
			}
		})
	}
}

func TestReadTime(t *testing.T) {
	words := func(n int) string {
		return strings.TrimSpace(strings.Repeat("word ", n))
	}

	testCases := []struct {
		name    string
		content string
		want    int
	}{
		{name: "empty", content: "", want: 0},
		{name: "one word", content: "hello", want: 1},
		{name: "exactly 200", content: words(200), want: 1},
		{name: "201 words", content: words(201), want: 2},
		{name: "400 words", content: words(400), want: 2},
		{name: "irregular whitespace", content: "a\n\n b\t c   d", want: 1},
		{name: "1001 words", content: words(1001), want: 6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, readTime(tc.content))
		})
	}
}
