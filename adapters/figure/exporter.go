// Package figure renders domain figures to files: interactive HTML through
// go-echarts and static png/svg images through go-chart.
package figure

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/browser"

	"simflow/domain/core"
	"simflow/domain/figure"
	"simflow/ports"
)

// Supported file formats
const (
	FormatHTML = "html"
	FormatPNG  = "png"
	FormatSVG  = "svg"
)

// Formats lists the supported file formats
func Formats() []string {
	return []string{FormatHTML, FormatPNG, FormatSVG}
}

// ExporterFor returns the exporter of a file format, case-insensitively
func ExporterFor(format string) (ports.FigureExporter, error) {
	switch strings.ToLower(format) {
	case FormatHTML:
		return HTMLExporter{}, nil
	case FormatPNG:
		return NewPNGExporter(), nil
	case FormatSVG:
		return NewSVGExporter(), nil
	}
	return nil, fmt.Errorf("%w: %q, expected one of %v", core.ErrUnsupportedFileFormat, format, Formats())
}

// Save writes fig into dir with its own file name and returns the path
func Save(dir string, fig *figure.Figure, exporter ports.FigureExporter) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create figure directory: %w", err)
	}
	path := filepath.Join(dir, fig.FileName(exporter.Format()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := exporter.Export(f, fig); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to export %s: %w", fig.Name, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// BrowserViewer opens saved figures with the system browser
type BrowserViewer struct{}

func (BrowserViewer) Show(path string) error {
	return browser.OpenFile(path)
}
