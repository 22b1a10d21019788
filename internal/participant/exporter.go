package participant

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
	FormatPDF   = "pdf"
)

// RosterExporter renders a participant list in the requested format
type RosterExporter interface {
	Export(format, eventTitle string, rows []Participant) ([]byte, string, string, error)
}

type rosterExporter struct{}

func NewRosterExporter() RosterExporter {
	return &rosterExporter{}
}

func (e *rosterExporter) Export(format, eventTitle string, rows []Participant) ([]byte, string, string, error) {
	timestamp := time.Now().Format("20060102_150405")

	switch format {
	case FormatCSV:
		data, err := e.exportCSV(rows)
		if err != nil {
			return nil, "", "", err
		}
		filename := fmt.Sprintf("participants_%s.csv", timestamp)
		return data, filename, "text/csv", nil

	case FormatExcel:
		data, err := e.exportExcel(rows)
		if err != nil {
			return nil, "", "", err
		}
		filename := fmt.Sprintf("participants_%s.xlsx", timestamp)
		return data, filename, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil

	case FormatPDF:
		data, err := e.exportPDF(eventTitle, rows)
		if err != nil {
			return nil, "", "", err
		}
		filename := fmt.Sprintf("participants_%s.pdf", timestamp)
		return data, filename, "application/pdf", nil

	default:
		return nil, "", "", fmt.Errorf("unsupported format for participant roster: %s", format)
	}
}

func (e *rosterExporter) exportCSV(rows []Participant) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "User ID", "Role", "Status", "Registered At", "Confirmed At"}
	if err := writer.Write(headers); err != nil {
		return nil, err
	}

	for _, r := range rows {
		confirmedAt := ""
		if r.ConfirmedAt != nil {
			confirmedAt = r.ConfirmedAt.Format("2006-01-02 15:04:05")
		}

		record := []string{
			r.ID,
			r.UserID,
			r.Role,
			r.Status,
			r.RegisteredAt.Format("2006-01-02 15:04:05"),
			confirmedAt,
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (e *rosterExporter) exportExcel(rows []Participant) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Participants"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "User ID", "Role", "Status", "Registered At", "Confirmed At"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sheet, cell, h)
	}

	for rIdx, r := range rows {
		row := rIdx + 2
		confirmedAt := ""
		if r.ConfirmedAt != nil {
			confirmedAt = r.ConfirmedAt.Format("2006-01-02 15:04:05")
		}

		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.UserID)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.Role)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.Status)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), r.RegisteredAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), confirmedAt)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *rosterExporter) exportPDF(eventTitle string, rows []Participant) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Participants - %s", eventTitle))
	pdf.Ln(15)

	pdf.SetFont("Arial", "B", 9)
	widths := []float64{60, 60, 25, 25, 40, 40}
	headers := []string{"ID", "User ID", "Role", "Status", "Registered At", "Confirmed At"}

	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, r := range rows {
		confirmedAt := ""
		if r.ConfirmedAt != nil {
			confirmedAt = r.ConfirmedAt.Format("2006-01-02 15:04:05")
		}

		pdf.CellFormat(widths[0], 6, r.ID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, r.UserID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, r.Role, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 6, r.Status, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[4], 6, r.RegisteredAt.Format("2006-01-02 15:04:05"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[5], 6, confirmedAt, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
