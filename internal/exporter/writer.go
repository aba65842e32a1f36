package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"settlecli/internal/config"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextWriter writes settlement files to disk
type TextWriter struct {
	outputDir string
	bom       bool
}

// NewTextWriter creates a writer rooted at the configured output directory
func NewTextWriter(cfg config.ExportConfig) *TextWriter {
	return &TextWriter{
		outputDir: cfg.OutputDir,
		bom:       cfg.BOM,
	}
}

// WriteExport writes content to name under dir, creating dir when needed.
// An empty dir means the writer's output directory. It returns the path
// of the written file.
func (w *TextWriter) WriteExport(dir, name, content string) (string, error) {
	fullPath := w.resolvePath(dir, name)

	slog.Info("Writing settlement file",
		slog.String("file_name", name),
		slog.String("full_path", fullPath),
		slog.Int("bytes", len(content)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if w.bom {
		if _, err := file.Write(utf8BOM); err != nil {
			return "", fmt.Errorf("failed to write BOM: %w", err)
		}
	}
	if _, err := file.WriteString(content); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := file.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync %s: %w", name, err)
	}

	return fullPath, nil
}

// resolvePath places name inside dir, falling back to the output directory
func (w *TextWriter) resolvePath(dir, name string) string {
	if dir == "" {
		dir = w.outputDir
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, filepath.Base(name))
}
