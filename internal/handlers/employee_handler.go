package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectcrm/internal/models"
	"projectcrm/internal/services"
)

type EmployeeHandler struct {
	service services.AllocationService
	log     *zap.SugaredLogger
}

func NewEmployeeHandler(service services.AllocationService, log *zap.SugaredLogger) *EmployeeHandler {
	return &EmployeeHandler{service: service, log: log}
}

// POST /employees
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req struct {
		UserID               *int64  `json:"user_id"`
		FullName             string  `json:"full_name" binding:"required"`
		Email                string  `json:"email"`
		CapacityHoursPerWeek float64 `json:"capacity_hours_per_week"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, err := h.service.CreateEmployee(c.Request.Context(), &models.Employee{
		UserID:               req.UserID,
		FullName:             req.FullName,
		Email:                req.Email,
		CapacityHoursPerWeek: req.CapacityHoursPerWeek,
	})
	if err != nil {
		respondError(c, h.log, "[employee][create]", err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// GET /employees/:id
func (h *EmployeeHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	e, err := h.service.GetEmployee(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[employee][get]", err)
		return
	}
	c.JSON(http.StatusOK, e)
}

type allocateRequest struct {
	TargetType           models.TargetKind `json:"target_type" binding:"required"` // project | task
	TargetID             int64             `json:"target_id" binding:"required"`
	AllocationPercentage float64           `json:"allocation_percentage" binding:"required"`
	StartDate            string            `json:"start_date" binding:"required"`
	EndDate              string            `json:"end_date" binding:"required"`
}

// @Summary      Allocate an employee
// @Description  Books a share of the employee's capacity on a project or task. 422 when it would exceed 100%.
// @Tags         Employees
// @Accept       json
// @Produce      json
// @Param        id    path      int              true  "Employee ID"
// @Param        body  body      allocateRequest  true  "Allocation"
// @Success      201   {object}  models.Allocation
// @Failure      422   {object}  map[string]string
// @Router       /employees/{id}/allocations [post]
func (h *EmployeeHandler) Allocate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req allocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := parseTime(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	end, err := parseTime(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}
	target := models.AllocationTarget{Kind: req.TargetType, ID: req.TargetID}

	a, err := h.service.AllocateTo(c.Request.Context(), id, target, req.AllocationPercentage, start, end)
	if err != nil {
		respondError(c, h.log, "[employee][allocate]", err)
		return
	}
	h.log.Infow("[employee][allocate] ok", "employee_id", id, "target", target.String(), "pct", req.AllocationPercentage)
	c.JSON(http.StatusCreated, a)
}

// GET /employees/:id/allocations
func (h *EmployeeHandler) ListAllocations(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	list, err := h.service.ListAllocations(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[employee][allocations]", err)
		return
	}
	if list == nil {
		list = []models.Allocation{}
	}
	c.JSON(http.StatusOK, list)
}

// GET /employees/:id/capacity?start=&end=
func (h *EmployeeHandler) Capacity(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	start, err := parseTime(c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start"})
		return
	}
	end, err := parseTime(c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end"})
		return
	}
	report, err := h.service.CapacityReport(c.Request.Context(), id, start, end)
	if err != nil {
		respondError(c, h.log, "[employee][capacity]", err)
		return
	}
	c.JSON(http.StatusOK, report)
}
