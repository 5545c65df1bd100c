package export

import (
	"fmt"
	"strings"
)

// Dataset defines tabular export content. Rows are keyed by header.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Format names a supported output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// Renderer encodes a dataset into a downloadable document.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ParseFormat normalises a user supplied format, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// RendererFor returns the renderer for a format.
func RendererFor(format Format) Renderer {
	switch format {
	case FormatPDF:
		return NewPDFExporter()
	case FormatXLSX:
		return NewXLSXExporter()
	default:
		return NewCSVExporter()
	}
}

func requireHeaders(kind string, data Dataset) error {
	if len(data.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", kind)
	}
	return nil
}
