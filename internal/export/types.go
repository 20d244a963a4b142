// Package export renders complaint documents: a printable receipt for one
// complaint, a spreadsheet of a profile's history, and an optional archive
// copy in object storage.
package export

import "errors"

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"

	mimePDF  = "application/pdf"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrPDFDisabled indicates receipt rendering was switched off in config.
	ErrPDFDisabled = errors.New("export pdf disabled")
	// ErrArchiveDisabled indicates no export bucket is configured.
	ErrArchiveDisabled = errors.New("export archive not configured")
)
