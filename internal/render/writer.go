package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrArtifactExists is returned instead of overwriting an artifact
	ErrArtifactExists = errors.New("artifact already exists")
	// ErrInvalidFileName is returned for artifact names that would leave the
	// output directory
	ErrInvalidFileName = errors.New("invalid artifact file name")
)

// Artifact is one rendered migration file
type Artifact struct {
	FileName string
	Content  []byte
}

// Writer writes artifacts into a directory
type Writer struct {
	OutputDir string
}

// NewWriter creates a new writer
func NewWriter(outputDir string) *Writer {
	return &Writer{OutputDir: outputDir}
}

// WriteAll writes every artifact and returns their paths. Nothing is written
// when any of the files already exists.
func (w *Writer) WriteAll(artifacts []Artifact) ([]string, error) {
	for _, a := range artifacts {
		if err := validateFileName(a.FileName); err != nil {
			return nil, err
		}
	}

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(w.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, a := range artifacts {
		path := filepath.Join(w.OutputDir, a.FileName)
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrArtifactExists, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to check %s: %w", path, err)
		}
	}

	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		path, err := w.write(a)
		if err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", a.FileName, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func (w *Writer) write(a Artifact) (string, error) {
	path := filepath.Join(w.OutputDir, a.FileName)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("%w: %s", ErrArtifactExists, path)
	}
	if err != nil {
		return "", err
	}

	if _, err := file.Write(a.Content); err != nil {
		_ = file.Close()
		return "", err
	}
	return path, file.Close()
}

func validateFileName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return nil
}
