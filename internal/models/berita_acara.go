package models

import (
	"fmt"
	"time"
)

// BeritaAcara represents an official inspection/acceptance report (BA)
// submitted by a vendor and approved or rejected by a direksi.
type BeritaAcara struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	GUID           string `gorm:"uniqueIndex;size:36" json:"guid"`
	DocumentNumber string `gorm:"uniqueIndex;size:20;not null" json:"document_number"`
	Type           string `gorm:"size:10;not null;index" json:"type"` // BAPB or BAPP
	ContractNumber string `gorm:"size:100;not null" json:"contract_number"`

	VendorID   uint   `gorm:"not null;index" json:"vendor_id"`
	VendorName string `gorm:"size:200;not null" json:"vendor_name"`

	// Inspection metadata
	InspectionDate     time.Time `gorm:"not null" json:"inspection_date"`
	InspectionLocation string    `gorm:"size:255;not null" json:"inspection_location"`
	PICName            string    `gorm:"size:150;not null" json:"pic_name"`
	PICTitle           string    `gorm:"size:150" json:"pic_title"`

	// Inspected item
	ItemDescription string  `gorm:"type:text;not null" json:"item_description"`
	ItemQuantity    float64 `gorm:"not null" json:"item_quantity"`
	ItemUnit        string  `gorm:"size:50" json:"item_unit"`
	ItemCondition   string  `gorm:"size:100" json:"item_condition"`
	Remarks         *string `gorm:"type:text" json:"remarks"`

	// Signatures (base64-encoded image payloads)
	SignatureVendor  string  `gorm:"type:text;not null" json:"signature_vendor"`
	SignatureDireksi *string `gorm:"type:text" json:"signature_direksi"`

	Status          string     `gorm:"default:PENDING;index" json:"status"`
	RejectionReason *string    `gorm:"type:text" json:"rejection_reason"`
	ApprovedBy      *uint      `json:"approved_by"`
	ApprovedAt      *time.Time `gorm:"index" json:"approved_at"`
	RejectedBy      *uint      `json:"rejected_by"`
	RejectedAt      *time.Time `json:"rejected_at"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Vendor   User  `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	Approver *User `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	Rejecter *User `gorm:"foreignKey:RejectedBy" json:"rejecter,omitempty"`
}

// TableName specifies the table name for BeritaAcara
func (BeritaAcara) TableName() string {
	return "berita_acaras"
}

// BA status constants
const (
	BAStatusPending  = "PENDING"
	BAStatusApproved = "APPROVED"
	BAStatusRejected = "REJECTED"
)

// BA type constants
const (
	BATypeBAPB = "BAPB" // goods inspection
	BATypeBAPP = "BAPP" // work/service inspection
)

// ValidBAType reports whether t is a known document type.
func ValidBAType(t string) bool {
	return t == BATypeBAPB || t == BATypeBAPP
}

// MayApprove returns true if the BA can be approved
func (b *BeritaAcara) MayApprove() bool {
	return b.Status == BAStatusPending
}

// MayReject returns true if the BA can be rejected
func (b *BeritaAcara) MayReject() bool {
	return b.Status == BAStatusPending
}

// MayResubmit returns true if the BA can be edited back to PENDING.
// Approved documents are immutable.
func (b *BeritaAcara) MayResubmit() bool {
	return b.Status == BAStatusRejected
}

// IsOwnedBy returns true if userID is the submitting vendor
func (b *BeritaAcara) IsOwnedBy(userID uint) bool {
	return b.VendorID == userID
}

// DocumentNumberPrefix returns the month-scoped prefix used for
// sequential numbering, e.g. "BA/2025/03/".
func DocumentNumberPrefix(t time.Time) string {
	return fmt.Sprintf("BA/%04d/%02d/", t.Year(), int(t.Month()))
}

// FormatDocumentNumber builds a full document number from a month
// prefix and a 1-based sequence, e.g. "BA/2025/03/001".
func FormatDocumentNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s%03d", prefix, seq)
}

// BeritaAcaraResponse is the JSON response format for BA documents
type BeritaAcaraResponse struct {
	ID                 uint       `json:"id"`
	GUID               string     `json:"guid"`
	DocumentNumber     string     `json:"document_number"`
	Type               string     `json:"type"`
	ContractNumber     string     `json:"contract_number"`
	VendorID           uint       `json:"vendor_id"`
	VendorName         string     `json:"vendor_name"`
	VendorEmail        string     `json:"vendor_email,omitempty"`
	InspectionDate     time.Time  `json:"inspection_date"`
	InspectionLocation string     `json:"inspection_location"`
	PICName            string     `json:"pic_name"`
	PICTitle           string     `json:"pic_title"`
	ItemDescription    string     `json:"item_description"`
	ItemQuantity       float64    `json:"item_quantity"`
	ItemUnit           string     `json:"item_unit"`
	ItemCondition      string     `json:"item_condition"`
	Remarks            *string    `json:"remarks"`
	SignatureVendor    string     `json:"signature_vendor"`
	SignatureDireksi   *string    `json:"signature_direksi"`
	Status             string     `json:"status"`
	RejectionReason    *string    `json:"rejection_reason"`
	ApprovedBy         *uint      `json:"approved_by"`
	ApprovedByName     string     `json:"approved_by_name,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at"`
	RejectedBy         *uint      `json:"rejected_by"`
	RejectedByName     string     `json:"rejected_by_name,omitempty"`
	RejectedAt         *time.Time `json:"rejected_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ToResponse converts BeritaAcara to BeritaAcaraResponse
func (b *BeritaAcara) ToResponse() BeritaAcaraResponse {
	resp := BeritaAcaraResponse{
		ID:                 b.ID,
		GUID:               b.GUID,
		DocumentNumber:     b.DocumentNumber,
		Type:               b.Type,
		ContractNumber:     b.ContractNumber,
		VendorID:           b.VendorID,
		VendorName:         b.VendorName,
		InspectionDate:     b.InspectionDate,
		InspectionLocation: b.InspectionLocation,
		PICName:            b.PICName,
		PICTitle:           b.PICTitle,
		ItemDescription:    b.ItemDescription,
		ItemQuantity:       b.ItemQuantity,
		ItemUnit:           b.ItemUnit,
		ItemCondition:      b.ItemCondition,
		Remarks:            b.Remarks,
		SignatureVendor:    b.SignatureVendor,
		SignatureDireksi:   b.SignatureDireksi,
		Status:             b.Status,
		RejectionReason:    b.RejectionReason,
		ApprovedBy:         b.ApprovedBy,
		ApprovedAt:         b.ApprovedAt,
		RejectedBy:         b.RejectedBy,
		RejectedAt:         b.RejectedAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if b.Vendor.ID != 0 {
		resp.VendorEmail = b.Vendor.Email
	}
	if b.Approver != nil {
		resp.ApprovedByName = b.Approver.FullName
	}
	if b.Rejecter != nil {
		resp.RejectedByName = b.Rejecter.FullName
	}

	return resp
}
