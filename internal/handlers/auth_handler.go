package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectcrm/internal/models"
	"projectcrm/internal/services"
)

type AuthHandler struct {
	userService services.UserService
	log         *zap.SugaredLogger
}

func NewAuthHandler(userService services.UserService, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{userService: userService, log: log}
}

// @Summary      Sign in
// @Description  Checks credentials and returns an access token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.TrimSpace(req.Email)

	user, token, err := h.userService.Authenticate(c.Request.Context(), email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.log.Infow("[auth][login] rejected", "email", email)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		respondError(c, h.log, "[auth][login]", err)
		return
	}
	h.log.Infow("[auth][login] success", "user_id", user.ID, "role_id", user.RoleID)
	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"access_token": token,
	})
}

// @Summary  Current user
// @Tags     Auth
// @Produce  json
// @Success  200  {object}  models.User
// @Router   /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, "[auth][me]", err)
		return
	}
	c.JSON(http.StatusOK, user)
}
