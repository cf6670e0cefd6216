package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectcrm/internal/models"
	"projectcrm/internal/services"
)

type setParentRequest struct {
	ParentID *int64 `json:"parent_id"`
}

type AccountHandler struct {
	service services.AccountService
	log     *zap.SugaredLogger
}

func NewAccountHandler(service services.AccountService, log *zap.SugaredLogger) *AccountHandler {
	return &AccountHandler{service: service, log: log}
}

// POST /accounts
func (h *AccountHandler) Create(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		ParentID *int64 `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := getUserAndRole(c)
	a, err := h.service.Create(c.Request.Context(), &models.Account{Name: req.Name, ParentID: req.ParentID, OwnerID: userID})
	if err != nil {
		respondError(c, h.log, "[account][create]", err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// GET /accounts?limit=&offset=
func (h *AccountHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.log, "[account][list]", err)
		return
	}
	if list == nil {
		list = []models.Account{}
	}
	c.JSON(http.StatusOK, list)
}

// GET /accounts/:id
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	a, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[account][get]", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// @Summary      Move an account in the hierarchy
// @Description  Rejected with 422 when the new parent would make the account its own ancestor
// @Tags         Accounts
// @Accept       json
// @Produce      json
// @Param        id    path      int               true  "Account ID"
// @Param        body  body      setParentRequest  true  "New parent (null for root)"
// @Success      200   {object}  models.Account
// @Failure      422   {object}  map[string]string
// @Router       /accounts/{id}/parent [put]
func (h *AccountHandler) SetParent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req setParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.service.SetParent(c.Request.Context(), id, req.ParentID)
	if err != nil {
		respondError(c, h.log, "[account][parent]", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// GET /accounts/:id/ancestors
func (h *AccountHandler) Ancestors(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ids, err := h.service.Ancestors(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[account][ancestors]", err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	c.JSON(http.StatusOK, gin.H{"account_id": id, "ancestors": ids})
}

type CompanyHandler struct {
	service services.CompanyService
	log     *zap.SugaredLogger
}

func NewCompanyHandler(service services.CompanyService, log *zap.SugaredLogger) *CompanyHandler {
	return &CompanyHandler{service: service, log: log}
}

// POST /companies
func (h *CompanyHandler) Create(c *gin.Context) {
	var req struct {
		Name            string `json:"name" binding:"required"`
		ParentCompanyID *int64 `json:"parent_company_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	co, err := h.service.Create(c.Request.Context(), &models.Company{Name: req.Name, ParentCompanyID: req.ParentCompanyID})
	if err != nil {
		respondError(c, h.log, "[company][create]", err)
		return
	}
	c.JSON(http.StatusCreated, co)
}

// GET /companies/:id
func (h *CompanyHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	co, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[company][get]", err)
		return
	}
	c.JSON(http.StatusOK, co)
}

// PUT /companies/:id/parent
func (h *CompanyHandler) SetParent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req setParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	co, err := h.service.SetParent(c.Request.Context(), id, req.ParentID)
	if err != nil {
		respondError(c, h.log, "[company][parent]", err)
		return
	}
	c.JSON(http.StatusOK, co)
}

// GET /companies/:id/ancestors
func (h *CompanyHandler) Ancestors(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ids, err := h.service.Ancestors(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[company][ancestors]", err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	c.JSON(http.StatusOK, gin.H{"company_id": id, "ancestors": ids})
}
