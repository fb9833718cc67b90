package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/accenprove/accenprove-api/internal/config"
	"github.com/accenprove/accenprove-api/internal/jobs"
	"github.com/accenprove/accenprove-api/internal/middleware"
	"github.com/accenprove/accenprove-api/internal/services"
	"github.com/accenprove/accenprove-api/internal/storage"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	BeritaAcara  *BeritaAcaraHandler
	Notification *NotificationHandler
	Stats        *StatsHandler
	Audit        *AuditHandler
	LoginHistory *LoginHistoryHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, store *storage.LocalStorage, worker *jobs.Worker, cfg *config.Config) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(worker),
		Auth:         NewAuthHandler(svcs.Auth, svcs.User, cfg),
		User:         NewUserHandler(svcs.User, svcs.Image),
		BeritaAcara:  NewBeritaAcaraHandler(svcs.BeritaAcara, svcs.Export, svcs.Report, svcs.Image),
		Notification: NewNotificationHandler(svcs.Notification),
		Stats:        NewStatsHandler(svcs.Stats),
		Audit:        NewAuditHandler(svcs.Audit),
		LoginHistory: NewLoginHistoryHandler(svcs.Auth),
	}
}

// principal builds the acting user's identity from the session claims.
func principal(c *gin.Context) services.Principal {
	return services.Principal{
		ID:    middleware.GetUserID(c),
		Email: middleware.GetUserEmail(c),
		Role:  middleware.GetUserRole(c),
	}
}

// parsePagination reads page/per_page from the query string. Missing,
// non-numeric or non-positive values fall back to the defaults so the
// page-count arithmetic downstream never sees a zero page size.
func parsePagination(c *gin.Context, defaultPerPage int) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))
	if perPage < 1 {
		perPage = defaultPerPage
	}
	return page, perPage
}

// actionContext captures request metadata for audit rows.
func actionContext(c *gin.Context) services.ActionContext {
	return services.ActionContext{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
