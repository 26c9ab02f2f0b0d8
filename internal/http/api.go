package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"seller-users/internal/database"
	"seller-users/internal/domain"
	"seller-users/internal/service"
)

const (
	maxPageSize     = 100
	minSearchLength = 2
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users   service.UserService
	manager *database.Manager
	logger  *logrus.Logger

	appName     string
	appVersion  string
	environment string
	debug       bool
	hosted      bool
}

type HandlerConfig struct {
	AppName     string
	AppVersion  string
	Environment string
	Debug       bool
	Hosted      bool
}

func NewHandler(users service.UserService, manager *database.Manager, cfg HandlerConfig, logger *logrus.Logger) *Handler {
	return &Handler{
		users:       users,
		manager:     manager,
		logger:      logger,
		appName:     cfg.AppName,
		appVersion:  cfg.AppVersion,
		environment: cfg.Environment,
		debug:       cfg.Debug,
		hosted:      cfg.Hosted,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.root)
	router.GET("/health", h.health)
	router.GET("/me", h.me)
	router.GET("/ulid", h.newULID)

	api := router.Group("/api")
	{
		api.GET("/:sellerId", h.getSeller)
		api.POST("/:sellerId/users", h.createUser)
		api.GET("/:sellerId/users", h.listUsers)
		api.GET("/:sellerId/users/:userId", h.getUser)
		api.PUT("/:sellerId/users/:userId", h.updateUser)
		api.DELETE("/:sellerId/users/:userId", h.deleteUser)
	}
}

func (h *Handler) root(c *gin.Context) {
	respondSuccess(c, http.StatusOK, "Service is running", gin.H{
		"name":        h.appName,
		"version":     h.appVersion,
		"environment": h.environment,
		"docs":        "/docs",
	})
}

func (h *Handler) health(c *gin.Context) {
	data := gin.H{
		"status":      "healthy",
		"environment": h.environment,
		"version":     h.appVersion,
		"debug":       h.debug,
		"hosted":      h.hosted,
	}

	if h.manager != nil {
		switch {
		case !h.manager.Connected():
			data["database"] = "uninitialized"
		case h.manager.Ping(c.Request.Context()) != nil:
			data["database"] = "unreachable"
		default:
			data["database"] = "connected"
		}
	}

	respondSuccess(c, http.StatusOK, "Health check completed successfully", data)
}

func (h *Handler) me(c *gin.Context) {
	info := gin.H{
		"user_id":       nil,
		"email":         nil,
		"current_store": nil,
		"access_type":   nil,
		"scope":         nil,
		"full_context":  nil,
	}
	if ac := AuthContextFrom(c); ac != nil {
		info["user_id"] = ac.Subject
		info["email"] = ac.Email
		info["current_store"] = ac.CurrentStore
		info["access_type"] = ac.AccessType
		info["scope"] = ac.Scope
		info["full_context"] = ac.Claims
	}

	respondSuccess(c, http.StatusOK, "User context retrieved successfully", info)
}

func (h *Handler) newULID(c *gin.Context) {
	respondSuccess(c, http.StatusOK, "ULID generated successfully", gin.H{
		"ulid": ulid.Make().String(),
	})
}

func (h *Handler) getSeller(c *gin.Context) {
	sellerID, ok := h.sellerIDParam(c)
	if !ok {
		return
	}
	respondSuccess(c, http.StatusOK, "Seller retrieved successfully", gin.H{
		"seller_id": sellerID,
	})
}

type createUserRequest struct {
	Email       string `json:"email" binding:"required,email"`
	FirstName   string `json:"first_name" binding:"required,min=2,max=50"`
	LastName    string `json:"last_name" binding:"required,min=2,max=50"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,min=10,max=15"`
	IsActive    *bool  `json:"is_active"`
}

type updateUserRequest struct {
	Email       *string `json:"email" binding:"omitempty,email"`
	FirstName   *string `json:"first_name" binding:"omitempty,min=2,max=50"`
	LastName    *string `json:"last_name" binding:"omitempty,min=2,max=50"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,min=10,max=15"`
	IsActive    *bool   `json:"is_active"`
}

type userResponse struct {
	ID          string `json:"id"`
	SellerID    int64  `json:"seller_id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type paginationInfo struct {
	TotalCount  int  `json:"total_count"`
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

type userListResponse struct {
	Users      []userResponse `json:"users"`
	Pagination paginationInfo `json:"pagination"`
}

func (h *Handler) createUser(c *gin.Context) {
	sellerID, ok := h.sellerIDParam(c)
	if !ok {
		return
	}

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "Request validation failed", ErrorDetail{
			Code:    CodeValidationError,
			Message: err.Error(),
		})
		return
	}

	user := &domain.User{
		Email:       strings.TrimSpace(req.Email),
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		IsActive:    true,
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	created, err := h.users.Create(c.Request.Context(), sellerID, user)
	if err != nil {
		h.logOperationError(c, err, sellerID, "")
		respondDomainError(c, err, "Failed to create user")
		return
	}

	respondSuccess(c, http.StatusCreated, "User created successfully", userToResponse(created))
}

func (h *Handler) getUser(c *gin.Context) {
	sellerID, ok := h.sellerIDParam(c)
	if !ok {
		return
	}
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), sellerID, userID)
	if err != nil {
		h.logOperationError(c, err, sellerID, userID)
		respondDomainError(c, err, "Failed to retrieve user")
		return
	}

	respondSuccess(c, http.StatusOK, "User retrieved successfully", userToResponse(user))
}

func (h *Handler) updateUser(c *gin.Context) {
	sellerID, ok := h.sellerIDParam(c)
	if !ok {
		return
	}
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "Request validation failed", ErrorDetail{
			Code:    CodeValidationError,
			Message: err.Error(),
		})
		return
	}

	patch := domain.UserPatch{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		IsActive:    req.IsActive,
	}

	user, err := h.users.Update(c.Request.Context(), sellerID, userID, patch)
	if err != nil {
		h.logOperationError(c, err, sellerID, userID)
		respondDomainError(c, err, "Failed to update user")
		return
	}

	respondSuccess(c, http.StatusOK, "User updated successfully", userToResponse(user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	sellerID, ok := h.sellerIDParam(c)
	if !ok {
		return
	}
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}

	if _, err := h.users.SoftDelete(c.Request.Context(), sellerID, userID); err != nil {
		h.logOperationError(c, err, sellerID, userID)
		respondDomainError(c, err, "Failed to delete user")
		return
	}

	respondSuccess(c, http.StatusOK, "User deleted successfully", gin.H{
		"deleted": userID,
	})
}

func (h *Handler) listUsers(c *gin.Context) {
	sellerID, ok := h.sellerIDParam(c)
	if !ok {
		return
	}

	query, ok := h.listQueryParams(c)
	if !ok {
		return
	}

	page, err := h.users.List(c.Request.Context(), sellerID, query)
	if err != nil {
		h.logOperationError(c, err, sellerID, "")
		respondDomainError(c, err, "Failed to retrieve users")
		return
	}

	resp := userListResponse{
		Users: make([]userResponse, len(page.Users)),
		Pagination: paginationInfo{
			TotalCount:  page.TotalCount,
			Page:        page.Page,
			PageSize:    page.PageSize,
			TotalPages:  page.TotalPages,
			HasNext:     page.HasNext,
			HasPrevious: page.HasPrevious,
		},
	}
	for i := range page.Users {
		resp.Users[i] = userToResponse(&page.Users[i])
	}

	respondSuccess(c, http.StatusOK, "Users retrieved successfully", resp)
}

func (h *Handler) sellerIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("sellerId"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "Invalid seller ID", ErrorDetail{
			Code:    CodeValidationError,
			Field:   "seller_id",
			Message: "Seller ID must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func (h *Handler) userIDParam(c *gin.Context) (string, bool) {
	id := c.Param("userId")
	if _, err := uuid.Parse(id); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user ID format", ErrorDetail{
			Code:    CodeValidationError,
			Field:   "user_id",
			Message: "User ID must be a valid UUID",
		})
		return "", false
	}
	return id, true
}

func (h *Handler) listQueryParams(c *gin.Context) (domain.ListQuery, bool) {
	query := domain.ListQuery{Page: 1, PageSize: domain.DefaultPageSize}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			respondError(c, http.StatusBadRequest, "Invalid pagination", ErrorDetail{
				Code:    CodeValidationError,
				Field:   "page",
				Message: "Page must be an integer >= 1",
			})
			return domain.ListQuery{}, false
		}
		query.Page = page
	}

	if raw := c.Query("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > maxPageSize {
			respondError(c, http.StatusBadRequest, "Invalid pagination", ErrorDetail{
				Code:    CodeValidationError,
				Field:   "page_size",
				Message: "Page size must be between 1 and 100",
			})
			return domain.ListQuery{}, false
		}
		query.PageSize = size
	}

	if raw := strings.TrimSpace(c.Query("search")); raw != "" {
		if len(raw) < minSearchLength {
			respondError(c, http.StatusBadRequest, "Invalid search term", ErrorDetail{
				Code:    CodeValidationError,
				Field:   "search",
				Message: "Search term must be at least 2 characters",
			})
			return domain.ListQuery{}, false
		}
		query.Search = raw
	}

	if raw := c.Query("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid filter", ErrorDetail{
				Code:    CodeValidationError,
				Field:   "is_active",
				Message: "isActive must be a boolean",
			})
			return domain.ListQuery{}, false
		}
		query.IsActive = &active
	}

	return query, true
}

func (h *Handler) logOperationError(c *gin.Context, err error, sellerID int64, userID string) {
	fields := logrus.Fields{
		"path":      c.Request.URL.Path,
		"method":    c.Request.Method,
		"seller_id": sellerID,
	}
	if userID != "" {
		fields["user_id"] = userID
	}
	h.logger.WithError(err).WithFields(fields).Error("user operation failed")
}

func userToResponse(user *domain.User) userResponse {
	return userResponse{
		ID:          user.ID,
		SellerID:    user.SellerID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		PhoneNumber: user.PhoneNumber,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   user.UpdatedAt.Format(time.RFC3339),
	}
}
