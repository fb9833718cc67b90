package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/accenprove/accenprove-api/internal/middleware"
	"github.com/accenprove/accenprove-api/internal/repository"
	"github.com/accenprove/accenprove-api/internal/services"
)

type UserHandler struct {
	userService  *services.UserService
	imageService *services.ImageService
}

func NewUserHandler(userService *services.UserService, imageService *services.ImageService) *UserHandler {
	return &UserHandler{userService: userService, imageService: imageService}
}

// @Summary List Users
// @Description Get a paginated list of users (admin)
// @Tags Users
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search term"
// @Param role query string false "Filter by role"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, query.PerPage = parsePagination(c, 20)
	query.Search = c.Query("search_term")
	query.SortBy = c.Query("sort_by")
	query.SortDir = c.Query("sort_dir")
	if role := c.Query("role"); role != "" {
		query.Filters["role"] = role
	}
	if active := c.Query("active"); active != "" {
		query.Filters["active"] = active
	}

	users, total, err := h.userService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for i := range users {
		responses = append(responses, users[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"users": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get User
// @Description Get a user by ID (admin)
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	user, err := h.userService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

// @Summary Get Current User
// @Description Get the authenticated user's profile
// @Tags Users
// @Produce json
// @Success 200 {object} models.UserResponse
// @Security BearerAuth
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.FindByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

type UpdateProfileRequest struct {
	FullName    *string `json:"full_name"`
	CompanyName *string `json:"company_name"`
	Phone       *string `json:"phone"`
}

// @Summary Update Current User
// @Description Update the authenticated user's contact details
// @Tags Users
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile Data"
// @Success 200 {object} models.UserResponse
// @Security BearerAuth
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if err := BindNestedOrFlat(c, "user", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	input := services.UpdateProfileInput{
		FullName:    req.FullName,
		CompanyName: req.CompanyName,
		Phone:       req.Phone,
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), principal(c), input, actionContext(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

type CreateUserRequest struct {
	FullName    string  `json:"full_name" binding:"required"`
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=8"`
	Role        string  `json:"role" binding:"required"`
	CompanyName *string `json:"company_name"`
	Phone       string  `json:"phone"`
}

// @Summary Create User
// @Description Create a new account (admin). Credentials are emailed to the owner.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User Data"
// @Success 201 {object} models.UserResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	input := services.CreateUserInput{
		FullName:    req.FullName,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		CompanyName: req.CompanyName,
		Phone:       req.Phone,
	}

	user, err := h.userService.Create(c.Request.Context(), input, principal(c), actionContext(c))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user.ToResponse()})
}

type UpdateUserRequest struct {
	FullName    *string `json:"full_name"`
	Email       *string `json:"email"`
	Role        *string `json:"role"`
	CompanyName *string `json:"company_name"`
	Phone       *string `json:"phone"`
	Active      *bool   `json:"active"`
}

// @Summary Update User
// @Description Update an account (admin)
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body UpdateUserRequest true "Changes"
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	var req UpdateUserRequest
	if err := BindNestedOrFlat(c, "user", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	input := services.UpdateUserInput{
		FullName:    req.FullName,
		Email:       req.Email,
		Role:        req.Role,
		CompanyName: req.CompanyName,
		Phone:       req.Phone,
		Active:      req.Active,
	}

	user, err := h.userService.Update(c.Request.Context(), uint(id), input, principal(c), actionContext(c))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if errors.Is(err, repository.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

// @Summary Deactivate User
// @Description Soft-delete an account (admin)
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	if err := h.userService.Deactivate(c.Request.Context(), uint(id), principal(c), actionContext(c)); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deactivated"})
}

// @Summary Restore User
// @Description Reverse a soft delete (admin)
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /users/{id}/restore [post]
func (h *UserHandler) Restore(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	if err := h.userService.Restore(c.Request.Context(), uint(id), principal(c), actionContext(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User restored"})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// @Summary Change Password
// @Description Change the authenticated user's password
// @Tags Users
// @Accept json
// @Produce json
// @Param request body ChangePasswordRequest true "Passwords"
// @Success 200 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /users/me/password [put]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current password and a new password of at least 8 characters are required"})
		return
	}

	err := h.userService.ChangePassword(c.Request.Context(), middleware.GetUserID(c), req.CurrentPassword, req.NewPassword, principal(c), actionContext(c))
	if err != nil {
		if errors.Is(err, services.ErrInvalidPassword) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Current password is incorrect"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// @Summary Upload Profile Photo
// @Description Upload the authenticated user's profile photo
// @Tags Users
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "Photo (JPG/PNG)"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /users/me/photo [post]
func (h *UserHandler) UploadPhoto(c *gin.Context) {
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	defer file.Close()

	originalPath, thumbPath, err := h.imageService.ProcessAndSaveProfilePicture(file, header)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.userService.SetPhoto(c.Request.Context(), middleware.GetUserID(c), originalPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"photo_path":     originalPath,
		"thumbnail_path": thumbPath,
	})
}

// @Summary Delete Profile Photo
// @Description Remove the authenticated user's profile photo
// @Tags Users
// @Produce json
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /users/me/photo [delete]
func (h *UserHandler) DeletePhoto(c *gin.Context) {
	if err := h.userService.ClearPhoto(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Photo removed"})
}
