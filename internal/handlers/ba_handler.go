package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/accenprove/accenprove-api/internal/authz"
	"github.com/accenprove/accenprove-api/internal/middleware"
	"github.com/accenprove/accenprove-api/internal/models"
	"github.com/accenprove/accenprove-api/internal/repository"
	"github.com/accenprove/accenprove-api/internal/services"
)

type BeritaAcaraHandler struct {
	baService     *services.BeritaAcaraService
	exportService *services.ExportService
	reportService *services.ReportService
	imageService  *services.ImageService
}

func NewBeritaAcaraHandler(
	baService *services.BeritaAcaraService,
	exportService *services.ExportService,
	reportService *services.ReportService,
	imageService *services.ImageService,
) *BeritaAcaraHandler {
	return &BeritaAcaraHandler{
		baService:     baService,
		exportService: exportService,
		reportService: reportService,
		imageService:  imageService,
	}
}

// @Summary List Berita Acara
// @Description Get a paginated list of BA documents. Vendors see their own only.
// @Tags BeritaAcara
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search term"
// @Param status query string false "Filter by status"
// @Param type query string false "Filter by type (BAPB/BAPP)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /ba [get]
func (h *BeritaAcaraHandler) Index(c *gin.Context) {
	query := h.parseQuery(c)

	bas, total, err := h.baService.List(c.Request.Context(), query, principal(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for i := range bas {
		responses = append(responses, bas[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"berita_acara": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

func (h *BeritaAcaraHandler) parseQuery(c *gin.Context) *repository.BeritaAcaraQuery {
	query := &repository.BeritaAcaraQuery{ListQuery: repository.NewListQuery()}
	query.Page, query.PerPage = parsePagination(c, 20)
	query.Search = c.Query("search_term")
	query.SortBy = c.Query("sort_by")
	query.SortDir = c.Query("sort_dir")
	query.Status = c.Query("status")
	query.Type = c.Query("type")
	query.StartDate = c.Query("start_date")
	query.EndDate = c.Query("end_date")
	if vendorID, err := strconv.ParseUint(c.Query("vendor_id"), 10, 32); err == nil {
		query.VendorID = uint(vendorID)
	}
	return query
}

// @Summary Get Berita Acara
// @Description Get a BA document by ID with vendor/approver details
// @Tags BeritaAcara
// @Produce json
// @Param id path int true "BA ID"
// @Success 200 {object} models.BeritaAcaraResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /ba/{id} [get]
func (h *BeritaAcaraHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	ba, err := h.baService.FindForActor(c.Request.Context(), uint(id), principal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"berita_acara": ba.ToResponse()})
}

type CreateBeritaAcaraRequest struct {
	Type               string  `json:"type" binding:"required"`
	ContractNumber     string  `json:"contract_number" binding:"required"`
	InspectionDate     string  `json:"inspection_date" binding:"required"`
	InspectionLocation string  `json:"inspection_location" binding:"required"`
	PICName            string  `json:"pic_name" binding:"required"`
	PICTitle           string  `json:"pic_title" binding:"required"`
	ItemDescription    string  `json:"item_description" binding:"required"`
	ItemQuantity       float64 `json:"item_quantity" binding:"required"`
	ItemUnit           string  `json:"item_unit" binding:"required"`
	ItemCondition      string  `json:"item_condition" binding:"required"`
	Remarks            *string `json:"remarks"`
	SignatureVendor    string  `json:"signature_vendor" binding:"required"`
}

// @Summary Create Berita Acara
// @Description Submit a new BA document (vendor). Status starts at PENDING.
// @Tags BeritaAcara
// @Accept json
// @Produce json
// @Param request body CreateBeritaAcaraRequest true "BA Data"
// @Success 201 {object} models.BeritaAcaraResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /ba [post]
func (h *BeritaAcaraHandler) Create(c *gin.Context) {
	var req CreateBeritaAcaraRequest
	if err := BindNestedOrFlat(c, "berita_acara", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := validateCreateRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inspectionDate, err := time.Parse("2006-01-02", req.InspectionDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "inspection_date must be YYYY-MM-DD"})
		return
	}

	if err := h.imageService.ValidateSignature(req.SignatureVendor); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.CreateBeritaAcaraInput{
		Type:               req.Type,
		ContractNumber:     req.ContractNumber,
		InspectionDate:     inspectionDate,
		InspectionLocation: req.InspectionLocation,
		PICName:            req.PICName,
		PICTitle:           req.PICTitle,
		ItemDescription:    req.ItemDescription,
		ItemQuantity:       req.ItemQuantity,
		ItemUnit:           req.ItemUnit,
		ItemCondition:      req.ItemCondition,
		Remarks:            req.Remarks,
		SignatureVendor:    req.SignatureVendor,
	}

	ba, err := h.baService.Create(c.Request.Context(), input, principal(c), actionContext(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"berita_acara": ba.ToResponse()})
}

// validateCreateRequest covers what binding tags can't: BindNestedOrFlat
// bypasses gin's validator, so required fields are checked by hand.
func validateCreateRequest(req *CreateBeritaAcaraRequest) error {
	switch {
	case req.Type == "":
		return errors.New("type is required")
	case req.ContractNumber == "":
		return errors.New("contract_number is required")
	case req.InspectionDate == "":
		return errors.New("inspection_date is required")
	case req.InspectionLocation == "":
		return errors.New("inspection_location is required")
	case req.PICName == "":
		return errors.New("pic_name is required")
	case req.PICTitle == "":
		return errors.New("pic_title is required")
	case req.ItemDescription == "":
		return errors.New("item_description is required")
	case req.ItemQuantity <= 0:
		return errors.New("item_quantity must be positive")
	case req.ItemUnit == "":
		return errors.New("item_unit is required")
	case req.ItemCondition == "":
		return errors.New("item_condition is required")
	case req.SignatureVendor == "":
		return errors.New("signature_vendor is required")
	}
	return nil
}

type PatchBeritaAcaraRequest struct {
	Action    string `json:"action" binding:"required"`
	Signature string `json:"signature"`
	Reason    string `json:"reason"`

	// Edit fields, all optional
	ContractNumber     *string  `json:"contract_number"`
	InspectionDate     *string  `json:"inspection_date"`
	InspectionLocation *string  `json:"inspection_location"`
	PICName            *string  `json:"pic_name"`
	PICTitle           *string  `json:"pic_title"`
	ItemDescription    *string  `json:"item_description"`
	ItemQuantity       *float64 `json:"item_quantity"`
	ItemUnit           *string  `json:"item_unit"`
	ItemCondition      *string  `json:"item_condition"`
	Remarks            *string  `json:"remarks"`
	SignatureVendor    *string  `json:"signature_vendor"`
}

// patchActions maps the request action verb to the policy table entry.
var patchActions = map[string]authz.Action{
	"approve": authz.ActionBAApprove,
	"reject":  authz.ActionBAReject,
	"edit":    authz.ActionBAResubmit,
}

// @Summary Update Berita Acara
// @Description Dispatch an action on a BA: approve, reject, or edit (vendor resubmit)
// @Tags BeritaAcara
// @Accept json
// @Produce json
// @Param id path int true "BA ID"
// @Param request body PatchBeritaAcaraRequest true "Action"
// @Success 200 {object} models.BeritaAcaraResponse
// @Failure 403 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /ba/{id} [patch]
func (h *BeritaAcaraHandler) Patch(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	var req PatchBeritaAcaraRequest
	if err := BindNestedOrFlat(c, "berita_acara", &req); err != nil || req.Action == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action is required (approve, reject, edit)"})
		return
	}

	action, ok := patchActions[req.Action]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action: " + req.Action})
		return
	}
	if !authz.Allowed(middleware.GetUserRole(c), action) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this action"})
		return
	}

	actor := principal(c)
	actionCtx := actionContext(c)
	ctx := c.Request.Context()

	var (
		ba  *models.BeritaAcara
		err error
	)

	switch req.Action {
	case "approve":
		if req.Signature != "" {
			if sigErr := h.imageService.ValidateSignature(req.Signature); sigErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": sigErr.Error()})
				return
			}
		}
		ba, err = h.baService.Approve(ctx, uint(id), req.Signature, actor, actionCtx)
	case "reject":
		ba, err = h.baService.Reject(ctx, uint(id), req.Reason, actor, actionCtx)
	case "edit":
		var inspectionDate *time.Time
		if req.InspectionDate != nil {
			parsed, parseErr := time.Parse("2006-01-02", *req.InspectionDate)
			if parseErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "inspection_date must be YYYY-MM-DD"})
				return
			}
			inspectionDate = &parsed
		}
		if req.SignatureVendor != nil {
			if sigErr := h.imageService.ValidateSignature(*req.SignatureVendor); sigErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": sigErr.Error()})
				return
			}
		}
		input := services.UpdateBeritaAcaraInput{
			ContractNumber:     req.ContractNumber,
			InspectionDate:     inspectionDate,
			InspectionLocation: req.InspectionLocation,
			PICName:            req.PICName,
			PICTitle:           req.PICTitle,
			ItemDescription:    req.ItemDescription,
			ItemQuantity:       req.ItemQuantity,
			ItemUnit:           req.ItemUnit,
			ItemCondition:      req.ItemCondition,
			Remarks:            req.Remarks,
			SignatureVendor:    req.SignatureVendor,
		}
		ba, err = h.baService.Update(ctx, uint(id), input, actor, actionCtx)
	}

	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"berita_acara": ba.ToResponse()})
}

// @Summary Delete Berita Acara
// @Description Delete a BA document (admin)
// @Tags BeritaAcara
// @Produce json
// @Param id path int true "BA ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /ba/{id} [delete]
func (h *BeritaAcaraHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	if err := h.baService.Delete(c.Request.Context(), uint(id), principal(c), actionContext(c)); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Berita acara deleted"})
}

// @Summary Export BA Register
// @Description Download the BA register as csv, xlsx or pdf
// @Tags BeritaAcara
// @Produce octet-stream
// @Param format query string false "Export format (csv, xlsx, pdf)" default(csv)
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /ba/export [get]
func (h *BeritaAcaraHandler) Export(c *gin.Context) {
	query := h.parseQuery(c)
	ctx := c.Request.Context()

	var (
		data        []byte
		filename    string
		contentType string
		err         error
	)

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		data, filename, err = h.exportService.ExportCSV(ctx, query)
		contentType = "text/csv"
	case "xlsx":
		data, filename, err = h.exportService.ExportXLSX(ctx, query)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		data, filename, err = h.exportService.ExportPDF(ctx, query)
		contentType = "application/pdf"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv, xlsx or pdf"})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}

// @Summary Download BA Document PDF
// @Description Render the printable BA document
// @Tags BeritaAcara
// @Produce application/pdf
// @Param id path int true "BA ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /ba/{id}/pdf [get]
func (h *BeritaAcaraHandler) DocumentPDF(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	// Vendor downloads are limited to their own documents
	if _, err := h.baService.FindForActor(c.Request.Context(), uint(id), principal(c)); err != nil {
		h.respondError(c, err)
		return
	}

	buf, filename, err := h.reportService.GenerateBeritaAcaraPDF(c.Request.Context(), uint(id))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// respondError maps service sentinel errors to HTTP statuses.
func (h *BeritaAcaraHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Berita acara not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this document"})
	case errors.Is(err, services.ErrMissingReason):
		c.JSON(http.StatusBadRequest, gin.H{"error": "A rejection reason is required"})
	case errors.Is(err, services.ErrMissingSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "A director signature is required"})
	case errors.Is(err, services.ErrApprovedLocked):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Approved documents cannot be modified"})
	case errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
