package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// defaultTemplate renders goose-style SQL migrations
const defaultTemplate = `-- {{.Class}}
-- +goose Up
{{.Up}}

-- +goose Down
{{.Down}}
`

// TemplateData is what a migration template can reference
type TemplateData struct {
	Class    string
	Name     string
	Sequence string
	Up       string
	Down     string
}

// Template wraps rendered up/down bodies into an artifact
type Template struct {
	tmpl *template.Template
	ext  string
}

// DefaultTemplate returns the built-in goose SQL template
func DefaultTemplate() *Template {
	return &Template{
		tmpl: template.Must(template.New("migration").Option("missingkey=error").Parse(defaultTemplate)),
		ext:  ".sql",
	}
}

// LoadTemplate parses a template file. The artifact extension comes from the
// file name with a trailing .tmpl or .tpl removed, so migration.go.tmpl yields
// .go artifacts. It defaults to .sql.
func LoadTemplate(path string) (*Template, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	tmpl, err := template.New(filepath.Base(path)).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &Template{tmpl: tmpl, ext: templateExt(path)}, nil
}

// templateExt keeps every extension after the first dot of the file name,
// so migration.up.sql.tmpl renders to .up.sql
func templateExt(path string) string {
	base := filepath.Base(path)
	for _, suffix := range []string{".tmpl", ".tpl"} {
		if trimmed, ok := strings.CutSuffix(base, suffix); ok {
			base = trimmed
			break
		}
	}
	if i := strings.Index(base, "."); i > 0 && i < len(base)-1 {
		return base[i:]
	}
	return ".sql"
}

// Ext returns the artifact extension, including the dot
func (t *Template) Ext() string {
	return t.ext
}

// Execute writes the template applied to data
func (t *Template) Execute(w io.Writer, data TemplateData) error {
	if err := t.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}
