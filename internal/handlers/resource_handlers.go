package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/accenprove/accenprove-api/internal/middleware"
	"github.com/accenprove/accenprove-api/internal/models"
	"github.com/accenprove/accenprove-api/internal/repository"
	"github.com/accenprove/accenprove-api/internal/services"
)

// --- Stats ---

type StatsHandler struct {
	statsService *services.StatsService
}

func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// @Summary Dashboard Stats
// @Description Role-shaped dashboard counters
// @Tags Stats
// @Produce json
// @Success 200 {object} services.Stats
// @Security BearerAuth
// @Router /stats [get]
func (h *StatsHandler) Index(c *gin.Context) {
	stats, err := h.statsService.GetStats(c.Request.Context(), principal(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- Audit logs ---

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// @Summary List Audit Logs
// @Description Get a paginated list of audit entries (admin)
// @Tags Audits
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(50)
// @Param category query string false "Filter by category"
// @Param action query string false "Filter by action"
// @Param user_id query int false "Filter by actor"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audits [get]
func (h *AuditHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, query.PerPage = parsePagination(c, 50)
	for _, key := range []string{"category", "action", "user_id"} {
		if value := c.Query(key); value != "" {
			query.Filters[key] = value
		}
	}

	logs, total, err := h.auditService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audits": logs,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// --- Notifications ---

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// @Summary List Notifications
// @Description Get the authenticated user's notifications
// @Tags Notifications
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param status query string false "Filter: unread or read"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, query.PerPage = parsePagination(c, 20)
	if status := c.Query("status"); status != "" {
		query.Filters["status"] = status
	}

	userID := middleware.GetUserID(c)
	notifications, total, err := h.notificationService.FindByUser(c.Request.Context(), userID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	unread, _ := h.notificationService.CountUnread(c.Request.Context(), userID)

	var responses []models.NotificationResponse
	for i := range notifications {
		responses = append(responses, notifications[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": responses,
		"unread_count":  unread,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Mark Notification Read
// @Description Mark one notification as read
// @Tags Notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	err := h.notificationService.MarkAsRead(c.Request.Context(), uint(id), middleware.GetUserID(c))
	if err != nil {
		if err == services.ErrForbidden {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not your notification"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// @Summary Mark All Notifications Read
// @Description Mark all of the authenticated user's notifications as read
// @Tags Notifications
// @Produce json
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notificationService.MarkAllAsRead(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}

// --- Login history ---

type LoginHistoryHandler struct {
	authService *services.AuthService
}

func NewLoginHistoryHandler(authService *services.AuthService) *LoginHistoryHandler {
	return &LoginHistoryHandler{authService: authService}
}

// @Summary List Login History
// @Description Get login attempts for a user, or all users (admin)
// @Tags Audits
// @Produce json
// @Param user_id query int false "Filter by user ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /login-history [get]
func (h *LoginHistoryHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, query.PerPage = parsePagination(c, 50)

	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 32)

	entries, total, err := h.authService.LoginHistory(c.Request.Context(), uint(userID), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"login_history": entries,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}
