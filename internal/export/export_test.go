package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"janseva/api/internal/complaint"
)

var fixedNow = time.Date(2025, 1, 29, 9, 0, 0, 0, time.UTC)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello-World"},
		{"complaint-2025-12345", "complaint-2025-12345"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "complaint"},
		{"Very Long Title That Exceeds Fifty Characters Limit", "Very-Long-Title-That-Exceeds-Fifty-Characters-Limi"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := sanitizeFilename(tt.input); result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},
		{"test+sign", "test%2Bsign"},
		{"special<>", "special%3C%3E"},
		{"normal-text.txt", "normal-text.txt"},
		{"₹", "%E2%82%B9"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := percentEncodeForDataURL(tt.input); result != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRenderReceiptHTML(t *testing.T) {
	svc := NewService(true, nil)
	svc.now = func() time.Time { return fixedNow }

	var captured string
	svc.render = func(_ context.Context, html, name string) (*Result, error) {
		captured = html
		return &Result{Data: []byte("%PDF"), Filename: sanitizeFilename(name) + ".pdf", MimeType: mimePDF}, nil
	}

	record := complaint.Seed()[0]
	record.Attachments = []complaint.Attachment{{Name: "leak<1>.jpg", Size: 2048, Type: "image/jpeg"}}
	result, err := svc.Receipt(context.Background(), record)
	if err != nil {
		t.Fatalf("Receipt() error = %v", err)
	}
	if result.Filename != "complaint-2025-12346.pdf" || result.MimeType != mimePDF {
		t.Fatalf("unexpected result: %+v", result)
	}

	for _, want := range []string{
		"Complaint #2025-12346",
		"Water leakage in main pipeline",
		"Water Supply Department",
		"Under Investigation",
		"Expected: 30 Jan 2025",
		"leak&lt;1&gt;.jpg (2 KB)",
	} {
		if !strings.Contains(captured, want) {
			t.Errorf("receipt HTML missing %q", want)
		}
	}
}

func TestReceiptDisabled(t *testing.T) {
	svc := NewService(false, nil)
	if _, err := svc.Receipt(context.Background(), complaint.Seed()[0]); !errors.Is(err, ErrPDFDisabled) {
		t.Fatalf("Receipt() error = %v, want ErrPDFDisabled", err)
	}
}

func TestHistoryXLSX(t *testing.T) {
	records := complaint.Seed()
	result, err := HistoryXLSX(records, fixedNow)
	if err != nil {
		t.Fatalf("HistoryXLSX() error = %v", err)
	}
	if result.MimeType != mimeXLSX || result.Filename != "complaint-history_20250129_090000.xlsx" {
		t.Fatalf("unexpected result: %s %s", result.Filename, result.MimeType)
	}

	f, err := excelize.OpenReader(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	header, _ := f.GetCellValue(historySheet, "A4")
	if header != "Complaint ID" {
		t.Fatalf("A4 = %q", header)
	}
	rows, err := f.GetRows(historySheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 4+len(records) {
		t.Fatalf("len(rows) = %d, want %d", len(rows), 4+len(records))
	}
	first, _ := f.GetCellValue(historySheet, "A5")
	status, _ := f.GetCellValue(historySheet, "D6")
	if first != "2025-12346" || status != "Resolved" {
		t.Fatalf("A5 = %q, D6 = %q", first, status)
	}
	if idx, _ := f.GetSheetIndex("Sheet1"); idx >= 0 {
		t.Fatal("default sheet should be removed")
	}
}

type fakeUploader struct {
	prefix string
	result *Result
}

func (f *fakeUploader) Upload(_ context.Context, prefix string, result *Result) (string, error) {
	f.prefix = prefix
	f.result = result
	return prefix + "/" + result.Filename, nil
}

func TestArchiveHistory(t *testing.T) {
	if _, err := NewService(false, nil).ArchiveHistory(context.Background(), "asha", nil); !errors.Is(err, ErrArchiveDisabled) {
		t.Fatalf("ArchiveHistory() without archive error = %v", err)
	}

	uploader := &fakeUploader{}
	svc := NewService(false, uploader)
	svc.now = func() time.Time { return fixedNow }
	key, err := svc.ArchiveHistory(context.Background(), "asha", complaint.Seed())
	if err != nil {
		t.Fatalf("ArchiveHistory() error = %v", err)
	}
	if key != "asha/complaint-history_20250129_090000.xlsx" || uploader.result == nil || len(uploader.result.Data) == 0 {
		t.Fatalf("key = %q, upload = %+v", key, uploader.result)
	}
}
