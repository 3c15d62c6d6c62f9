package mailservice

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Every email template defines these three blocks.
var templateBlocks = []string{"subject", "plainBody", "htmlBody"}

// Template holds the embedded email templates, parsed once and keyed by file name.
type Template struct {
	set map[string]*template.Template
}

// Rendered is one email's subject and bodies.
type Rendered struct {
	Subject string
	Plain   string
	HTML    string
}

// NewTemplate parses every embedded template and fails if one lacks a required block.
func NewTemplate() (*Template, error) {
	return parseTemplates(templateFS, "templates/*.html")
}

func parseTemplates(fsys fs.FS, pattern string) (*Template, error) {
	files, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no email templates match %q", pattern)
	}

	set := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := path.Base(file)

		t, err := template.New(name).ParseFS(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("could not parse template %s: %w", name, err)
		}

		for _, block := range templateBlocks {
			if t.Lookup(block) == nil {
				return nil, fmt.Errorf("template %s does not define %q", name, block)
			}
		}

		set[name] = t
	}

	return &Template{set: set}, nil
}

// Render executes the named template against data.
func (tp *Template) Render(name string, data any) (Rendered, error) {
	t, ok := tp.set[name]
	if !ok {
		return Rendered{}, fmt.Errorf("unknown email template %q", name)
	}

	var (
		r   Rendered
		buf strings.Builder
	)
	for i, dst := range []*string{&r.Subject, &r.Plain, &r.HTML} {
		buf.Reset()
		if err := t.ExecuteTemplate(&buf, templateBlocks[i], data); err != nil {
			return Rendered{}, fmt.Errorf("could not render %s/%s: %w", name, templateBlocks[i], err)
		}
		*dst = buf.String()
	}
	r.Subject = strings.TrimSpace(r.Subject)

	return r, nil
}
