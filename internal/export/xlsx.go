package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"janseva/api/internal/complaint"
)

const historySheet = "Complaints"

var historyColumns = []struct {
	label string
	width float64
	value func(complaint.Record) interface{}
}{
	{"Complaint ID", 18, func(r complaint.Record) interface{} { return r.ID }},
	{"Subject", 40, func(r complaint.Record) interface{} { return r.Subject }},
	{"Department", 20, func(r complaint.Record) interface{} { return string(r.Department) }},
	{"Status", 14, func(r complaint.Record) interface{} { return string(r.Status) }},
	{"Priority", 10, func(r complaint.Record) interface{} { return string(r.Priority) }},
	{"Registered", 18, func(r complaint.Record) interface{} { return r.RegisteredDate.Format("2006-01-02 15:04") }},
	{"Progress %", 11, func(r complaint.Record) interface{} { return r.Progress }},
	{"Location", 30, func(r complaint.Record) interface{} { return r.Location }},
	{"Attachments", 12, func(r complaint.Record) interface{} { return len(r.Attachments) }},
}

// HistoryXLSX writes records, in the given order, to a single-sheet workbook
// with a title row, a header row and one row per complaint.
func HistoryXLSX(records []complaint.Record, generatedAt time.Time) (*Result, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(historySheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Vertical: "center"},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F3C88"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	if err := f.SetCellValue(historySheet, "A1", "Complaint history"); err != nil {
		return nil, fmt.Errorf("write title: %w", err)
	}
	_ = f.SetCellStyle(historySheet, "A1", "A1", titleStyle)
	_ = f.SetRowHeight(historySheet, 1, 24)
	_ = f.SetCellValue(historySheet, "A2", "Generated: "+generatedAt.Format("2006-01-02 15:04:05"))

	for col, column := range historyColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 4)
		if err := f.SetCellValue(historySheet, cell, column.label); err != nil {
			return nil, fmt.Errorf("write header %s: %w", column.label, err)
		}
		_ = f.SetCellStyle(historySheet, cell, cell, headerStyle)
		colName, _ := excelize.ColumnNumberToName(col + 1)
		_ = f.SetColWidth(historySheet, colName, colName, column.width)
	}

	for row, record := range records {
		for col, column := range historyColumns {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+5)
			if err := f.SetCellValue(historySheet, cell, column.value(record)); err != nil {
				return nil, fmt.Errorf("write complaint %s: %w", record.ID, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return &Result{
		Data:     buf.Bytes(),
		Filename: "complaint-history_" + generatedAt.Format("20060102_150405") + ".xlsx",
		MimeType: mimeXLSX,
	}, nil
}
