// Package render turns planned migration units into files: SQL bodies for a
// dialect, wrapped in a template, written without overwriting.
package render

import (
	"bytes"
	"fmt"

	"github.com/tordrt/migrategen/internal/migration"
	"github.com/tordrt/migrategen/internal/schema"
)

// Renderer renders units into artifacts
type Renderer struct {
	sql  *SQLRenderer
	tmpl *Template
}

// New creates a renderer for dialect. A nil template means DefaultTemplate.
func New(dialect schema.Dialect, tmpl *Template) (*Renderer, error) {
	sql, err := NewSQLRenderer(dialect)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		tmpl = DefaultTemplate()
	}
	return &Renderer{sql: sql, tmpl: tmpl}, nil
}

// Render renders one unit
func (r *Renderer) Render(u *migration.Unit) (Artifact, error) {
	up, err := r.sql.Render(u.Up)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to render %s up: %w", u.Name, err)
	}
	down, err := r.sql.Render(u.Down)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to render %s down: %w", u.Name, err)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, TemplateData{
		Class:    u.ClassName(),
		Name:     u.Name,
		Sequence: u.Sequence.String(),
		Up:       up,
		Down:     down,
	}); err != nil {
		return Artifact{}, fmt.Errorf("failed to render %s: %w", u.Name, err)
	}

	return Artifact{
		FileName: u.FileName() + r.tmpl.Ext(),
		Content:  buf.Bytes(),
	}, nil
}

// RenderAll renders units in order
func (r *Renderer) RenderAll(units []migration.Unit) ([]Artifact, error) {
	artifacts := make([]Artifact, 0, len(units))
	for i := range units {
		a, err := r.Render(&units[i])
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}
