package export

import (
	"context"
	"fmt"
	"time"

	"janseva/api/internal/complaint"
	"janseva/api/internal/timeline"
)

// Service renders exports and optionally archives them.
type Service struct {
	pdfEnabled bool
	archive    Uploader
	now        func() time.Time
	// render is swapped in tests so receipts can be checked without Chrome.
	render func(ctx context.Context, html, name string) (*Result, error)
}

// NewService creates an export service. archive may be nil.
func NewService(pdfEnabled bool, archive Uploader) *Service {
	return &Service{
		pdfEnabled: pdfEnabled,
		archive:    archive,
		now:        time.Now,
		render:     renderPDF,
	}
}

// Receipt renders the printable receipt of one complaint as PDF.
func (s *Service) Receipt(ctx context.Context, record complaint.Record) (*Result, error) {
	if !s.pdfEnabled {
		return nil, ErrPDFDisabled
	}
	now := s.now()
	html, err := RenderReceiptHTML(ReceiptData{
		Record:      record,
		Tracking:    timeline.Synthesize(record, now),
		Officer:     timeline.DefaultOfficer(record.Department),
		GeneratedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return s.render(ctx, html, "complaint-"+record.ID)
}

// History renders records as a spreadsheet.
func (s *Service) History(records []complaint.Record) (*Result, error) {
	return HistoryXLSX(records, s.now())
}

// ArchiveHistory renders the history spreadsheet and stores it under the
// profile's prefix, returning the object key.
func (s *Service) ArchiveHistory(ctx context.Context, profile string, records []complaint.Record) (string, error) {
	if s.archive == nil {
		return "", ErrArchiveDisabled
	}
	result, err := s.History(records)
	if err != nil {
		return "", err
	}
	return s.archive.Upload(ctx, profile, result)
}
