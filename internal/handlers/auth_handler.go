package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/accenprove/accenprove-api/internal/config"
	"github.com/accenprove/accenprove-api/internal/jobs"
	"github.com/accenprove/accenprove-api/internal/services"
)

type HealthHandler struct {
	worker *jobs.Worker
}

func NewHealthHandler(worker *jobs.Worker) *HealthHandler {
	return &HealthHandler{worker: worker}
}

// @Summary Health Check
// @Description Checks if the API is running
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "accenprove-api",
		"version": "1.0.0",
		"worker":  h.worker.GetStats(),
	})
}

type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
	cfg         *config.Config
}

func NewAuthHandler(authService *services.AuthService, userService *services.UserService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService, cfg: cfg}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// @Summary Login
// @Description Authenticates a user and sets the session cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login Credentials"
// @Success 200 {object} services.LoginResult
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password, actionContext(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	h.setSessionCookie(c, result.Token)
	c.JSON(http.StatusOK, result)
}

// setSessionCookie stores the JWT in an HttpOnly cookie so browser
// clients stay authenticated without holding the token in JS.
func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	secure := h.cfg.Environment == "production"
	maxAge := h.cfg.JWTExpirationHours * 3600
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.SessionCookieName, token, maxAge, "/", "", secure, true)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// @Summary Refresh Token
// @Description Refreshes the access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh Token"
// @Success 200 {object} services.LoginResult
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Refresh token is required"})
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	h.setSessionCookie(c, result.Token)
	c.JSON(http.StatusOK, result)
}

// @Summary Logout
// @Description Logs out a user (invalidates refresh token, clears cookie)
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh Token"
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		h.authService.Logout(c.Request.Context(), req.RefreshToken)
	}

	c.SetCookie(h.cfg.SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

type SendResetCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// @Summary Request Password Reset
// @Description Emails a reset code. Always returns 200 so the endpoint does not leak which emails exist.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body SendResetCodeRequest true "Email"
// @Success 200 {object} map[string]string
// @Router /auth/send-reset-code [post]
func (h *AuthHandler) SendResetCode(c *gin.Context) {
	var req SendResetCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email is required"})
		return
	}

	if err := h.userService.SendResetCode(c.Request.Context(), req.Email, actionContext(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process reset request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the email exists, a reset code has been sent"})
}

type ConfirmResetRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// @Summary Confirm Password Reset
// @Description Validates the reset code and sets the new password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body ConfirmResetRequest true "Reset confirmation"
// @Success 200 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /auth/confirm-reset [post]
func (h *AuthHandler) ConfirmReset(c *gin.Context) {
	var req ConfirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email, code and a password of at least 8 characters are required"})
		return
	}

	err := h.userService.ConfirmReset(c.Request.Context(), req.Email, req.Code, req.NewPassword, actionContext(c))
	if err != nil {
		if err == services.ErrInvalidResetCode {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid or expired reset code"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
