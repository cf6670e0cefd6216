package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectcrm/internal/authz"
	"projectcrm/internal/models"
	"projectcrm/internal/services"
)

type UserHandler struct {
	service services.UserService
	log     *zap.SugaredLogger
}

type createUserRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	RoleID   int    `json:"role_id"`
}

func NewUserHandler(service services.UserService, log *zap.SugaredLogger) *UserHandler {
	return &UserHandler{service: service, log: log}
}

// POST /users (admin only)
func (h *UserHandler) CreateUser(c *gin.Context) {
	_, roleID := getUserAndRole(c)
	if roleID != authz.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "only admin can create users"})
		return
	}

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := &models.User{FullName: req.FullName, Email: req.Email, RoleID: req.RoleID}
	if err := h.service.CreateUserWithPassword(c.Request.Context(), user, req.Password); err != nil {
		respondError(c, h.log, "[user][create]", err)
		return
	}
	h.log.Infow("[user][create] ok", "user_id", user.ID, "role_id", user.RoleID)
	c.JSON(http.StatusCreated, user)
}

// GET /users/:id
func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.service.GetUserByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[user][get]", err)
		return
	}
	c.JSON(http.StatusOK, user)
}
