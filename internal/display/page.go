// Package display renders the detection count as a self-refreshing HTML page
// suitable for a browser source in streaming software.
package display

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/fmueller/jabcount/internal/atomicfile"
	"github.com/fmueller/jabcount/internal/session"
)

//go:embed counter.html.tmpl
var pageSource string

var pageTemplate = template.Must(template.New("counter").Parse(pageSource))

type pageData struct {
	Title    string
	Label    string
	Count    int64
	Engine   string
	Reload   int
	FlashFor int
}

// Page writes the counter page to Path. The page reloads itself and flashes
// only when the count is higher than the last value the browser saw, so
// rewriting an unchanged count is harmless.
type Page struct {
	Path   string
	Title  string
	Label  string
	Engine string
}

func (p *Page) Publish(_ context.Context, u session.Update) error {
	return p.Render(u.Count)
}

// Render writes the page for count.
func (p *Page) Render(count int64) error {
	if p.Path == "" {
		return fmt.Errorf("display page path is required")
	}

	data := pageData{
		Title:    p.Title,
		Label:    p.Label,
		Count:    count,
		Engine:   p.Engine,
		Reload:   1500,
		FlashFor: 1800,
	}
	if data.Title == "" {
		data.Title = "JABRONI COUNTER"
	}
	if data.Label == "" {
		data.Label = "Jabronis Detected"
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render counter page: %w", err)
	}

	return atomicfile.WriteFile(p.Path, buf.Bytes(), 0o644)
}
