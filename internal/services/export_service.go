package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/accenprove/accenprove-api/internal/models"
	"github.com/accenprove/accenprove-api/internal/repository"
)

// ExportService renders the BA register in CSV, XLSX and PDF.
type ExportService struct {
	baRepo repository.BeritaAcaraRepository
}

func NewExportService(baRepo repository.BeritaAcaraRepository) *ExportService {
	return &ExportService{baRepo: baRepo}
}

var registerColumns = []string{
	"Document Number", "Type", "Contract Number", "Vendor",
	"Inspection Date", "Item Description", "Quantity", "Unit",
	"Status", "Submitted At",
}

func registerRow(ba *models.BeritaAcara) []string {
	return []string{
		ba.DocumentNumber,
		ba.Type,
		ba.ContractNumber,
		ba.VendorName,
		ba.InspectionDate.Format("02/01/2006"),
		ba.ItemDescription,
		fmt.Sprintf("%.2f", ba.ItemQuantity),
		ba.ItemUnit,
		ba.Status,
		ba.CreatedAt.Format("02/01/2006 15:04"),
	}
}

func (s *ExportService) fetch(ctx context.Context, query *repository.BeritaAcaraQuery) ([]models.BeritaAcara, error) {
	// Exports ignore pagination: the whole filtered register goes out.
	query.Page = 1
	query.PerPage = 10000
	bas, _, err := s.baRepo.List(ctx, query)
	return bas, err
}

func (s *ExportService) ExportCSV(ctx context.Context, query *repository.BeritaAcaraQuery) ([]byte, string, error) {
	bas, err := s.fetch(ctx, query)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Berita Acara Register", time.Now().Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})
	_ = writer.Write(registerColumns)

	for i := range bas {
		_ = writer.Write(registerRow(&bas[i]))
	}

	writer.Flush()

	filename := fmt.Sprintf("berita_acara_register_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func (s *ExportService) ExportXLSX(ctx context.Context, query *repository.BeritaAcaraQuery) ([]byte, string, error) {
	bas, err := s.fetch(ctx, query)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Register"
	_ = f.SetSheetName("Sheet1", sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", "Berita Acara Register")
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	for col, name := range registerColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 3)
		_ = f.SetCellValue(sheet, cell, name)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i := range bas {
		row := registerRow(&bas[i])
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+4)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("berita_acara_register_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func (s *ExportService) ExportPDF(ctx context.Context, query *repository.BeritaAcaraQuery) ([]byte, string, error) {
	bas, err := s.fetch(ctx, query)
	if err != nil {
		return nil, "", err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Berita Acara Register")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 9)
	pdf.Cell(60, 6, fmt.Sprintf("Generated %s", time.Now().Format("02/01/2006 15:04")))
	pdf.Ln(10)

	widths := []float64{32, 14, 34, 40, 24, 60, 18, 14, 22, 28}

	pdf.SetFont("Arial", "B", 8)
	for i, name := range registerColumns {
		pdf.CellFormat(widths[i], 7, name, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for i := range bas {
		row := registerRow(&bas[i])
		for col, value := range row {
			pdf.CellFormat(widths[col], 6, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("berita_acara_register_%s.pdf", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
