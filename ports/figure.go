package ports

import (
	"io"

	"simflow/domain/figure"
)

// FigureExporter writes a figure in one file format
type FigureExporter interface {
	Format() string
	Export(w io.Writer, fig *figure.Figure) error
}

// FigureViewer displays a saved figure to the user
type FigureViewer interface {
	Show(path string) error
}
