package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"

	"github.com/accenprove/accenprove-api/internal/models"
	"github.com/accenprove/accenprove-api/internal/repository"
	"github.com/accenprove/accenprove-api/internal/storage"
	"github.com/accenprove/accenprove-api/pkg/logger"
)

// ReportService renders printable Berita Acara documents.
type ReportService struct {
	baRepo   repository.BeritaAcaraRepository
	userRepo repository.UserRepository
	store    *storage.LocalStorage
}

func NewReportService(baRepo repository.BeritaAcaraRepository, userRepo repository.UserRepository, store *storage.LocalStorage) *ReportService {
	return &ReportService{baRepo: baRepo, userRepo: userRepo, store: store}
}

// GenerateBeritaAcaraPDF renders the official BA document for printing
// and archival. The layout follows the signed paper form.
func (s *ReportService) GenerateBeritaAcaraPDF(ctx context.Context, id uint) (*bytes.Buffer, string, error) {
	ba, err := s.baRepo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, "", ErrNotFound
	}

	approverName := ""
	approvedAt := ""
	if ba.Approver != nil {
		approverName = ba.Approver.FullName
	}
	if ba.ApprovedAt != nil {
		approvedAt = ba.ApprovedAt.Format("02 January 2006")
	}

	signatureDireksi := ""
	if ba.SignatureDireksi != nil {
		signatureDireksi = *ba.SignatureDireksi
	}

	remarks := ""
	if ba.Remarks != nil {
		remarks = *ba.Remarks
	}

	typeLabel := "Berita Acara Pemeriksaan Barang"
	if ba.Type == models.BATypeBAPP {
		typeLabel = "Berita Acara Pemeriksaan Pekerjaan"
	}

	data := struct {
		DocumentNumber     string
		TypeLabel          string
		ContractNumber     string
		VendorName         string
		InspectionDate     string
		InspectionLocation string
		PICName            string
		PICTitle           string
		ItemDescription    string
		ItemQuantity       string
		ItemUnit           string
		ItemCondition      string
		Remarks            string
		Status             string
		SignatureVendor    template.URL
		SignatureDireksi   template.URL
		ApproverName       string
		ApprovedAt         string
		SubmittedAt        string
	}{
		DocumentNumber:     ba.DocumentNumber,
		TypeLabel:          typeLabel,
		ContractNumber:     ba.ContractNumber,
		VendorName:         ba.VendorName,
		InspectionDate:     ba.InspectionDate.Format("02 January 2006"),
		InspectionLocation: ba.InspectionLocation,
		PICName:            ba.PICName,
		PICTitle:           ba.PICTitle,
		ItemDescription:    ba.ItemDescription,
		ItemQuantity:       fmt.Sprintf("%.2f", ba.ItemQuantity),
		ItemUnit:           ba.ItemUnit,
		ItemCondition:      ba.ItemCondition,
		Remarks:            remarks,
		Status:             ba.Status,
		// Signatures are data URIs; template.URL keeps the sanitizer
		// from mangling them.
		SignatureVendor:    template.URL(ba.SignatureVendor),
		SignatureDireksi:   template.URL(signatureDireksi),
		ApproverName:       approverName,
		ApprovedAt:         approvedAt,
		SubmittedAt:        ba.CreatedAt.Format("02 January 2006 15:04"),
	}

	buf, err := s.generatePDF("ba_document.html", data)
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("%s.pdf", strings.ReplaceAll(ba.DocumentNumber, "/", "_"))

	// Keep an archival copy; failures only lose the archive, not the
	// download.
	if _, err := s.store.UploadFromBytes(buf.Bytes(), filename, "berita_acara"); err != nil {
		logger.Warn(fmt.Sprintf("failed to archive %s: %v", filename, err))
	}

	return buf, filename, nil
}

// generatePDF renders an HTML template and converts it with wkhtmltopdf.
func (s *ReportService) generatePDF(templateName string, data interface{}) (*bytes.Buffer, error) {
	tmplPath := fmt.Sprintf("internal/services/templates/reports/%s", templateName)
	if _, err := os.Stat(tmplPath); os.IsNotExist(err) {
		tmplPath = fmt.Sprintf("templates/reports/%s", templateName)
	}

	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s (path: %s): %w", templateName, tmplPath, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(buf.Bytes()))
	page.EnableLocalFileAccess.Set(true)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create pdf: %w", err)
	}

	return pdfg.Buffer(), nil
}
