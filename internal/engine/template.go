package engine

import (
	"bytes"
	"fmt"
	"text/template"
)

// Renderer renders templates against a per-line Context.
//
// The production implementation is TemplateRenderer; tests substitute
// deterministic fakes. Rendering must be atomic from the caller's
// perspective: on failure no partial output is returned.
type Renderer interface {
	// Parse validates the template source. Called once per template at
	// pipeline construction so syntax errors surface before any line
	// is processed.
	Parse(src string) error

	// Render executes the template against ctx. A reference to an
	// undefined field is an error, not an empty substitution.
	Render(src string, ctx Context) (string, error)
}

// TemplateRenderer renders text/template sources. Parsed templates are
// cached by source, so each template is compiled exactly once per
// pipeline regardless of how many lines render it.
type TemplateRenderer struct {
	cache map[string]*template.Template
}

// NewTemplateRenderer creates an empty renderer.
func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{cache: make(map[string]*template.Template)}
}

// Parse implements Renderer.
func (r *TemplateRenderer) Parse(src string) error {
	_, err := r.lookup(src)
	return err
}

// Render implements Renderer. The template executes into a buffer;
// output is only returned when execution completed without error.
func (r *TemplateRenderer) Render(src string, ctx Context) (string, error) {
	tmpl, err := r.lookup(src)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string(ctx)); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (r *TemplateRenderer) lookup(src string) (*template.Template, error) {
	if tmpl, ok := r.cache[src]; ok {
		return tmpl, nil
	}

	tmpl, err := template.New("line").Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	r.cache[src] = tmpl
	return tmpl, nil
}
