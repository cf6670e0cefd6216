package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectcrm/internal/authz"
	"projectcrm/internal/models"
	"projectcrm/internal/services"
)

type TimeEntryHandler struct {
	service services.TimeEntryService
	log     *zap.SugaredLogger
}

func NewTimeEntryHandler(service services.TimeEntryService, log *zap.SugaredLogger) *TimeEntryHandler {
	return &TimeEntryHandler{service: service, log: log}
}

type timeEntryRequest struct {
	TaskID          int64    `json:"task_id"`
	UserID          int64    `json:"user_id"`
	StartedAt       string   `json:"started_at"`
	EndedAt         string   `json:"ended_at"`
	DurationMinutes int      `json:"duration_minutes"`
	IsBillable      bool     `json:"is_billable"`
	BillingRate     *float64 `json:"billing_rate"`
	Description     string   `json:"description"`
}

func (r timeEntryRequest) toEntry() (*models.TaskTimeEntry, error) {
	start, err := parseOptionalTime(r.StartedAt)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalTime(r.EndedAt)
	if err != nil {
		return nil, err
	}
	return &models.TaskTimeEntry{
		TaskID:          r.TaskID,
		UserID:          r.UserID,
		StartedAt:       start,
		EndedAt:         end,
		DurationMinutes: r.DurationMinutes,
		IsBillable:      r.IsBillable,
		BillingRate:     r.BillingRate,
		Description:     r.Description,
	}, nil
}

// @Summary      Log time
// @Description  422 when the entry overlaps or duplicates another entry of the same user
// @Tags         TimeEntries
// @Accept       json
// @Produce      json
// @Param        body  body      timeEntryRequest  true  "Time entry"
// @Success      201   {object}  models.TaskTimeEntry
// @Failure      422   {object}  map[string]string
// @Router       /time-entries [post]
func (h *TimeEntryHandler) Create(c *gin.Context) {
	var req timeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, err := req.toEntry()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid started_at or ended_at"})
		return
	}
	userID, roleID := getUserAndRole(c)
	if e.UserID == 0 {
		e.UserID = userID
	}
	if e.UserID != userID && !authz.CanPlan(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "can log time only for yourself"})
		return
	}

	created, err := h.service.Create(c.Request.Context(), e)
	if err != nil {
		respondError(c, h.log, "[time-entry][create]", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GET /time-entries/:id
func (h *TimeEntryHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	e, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[time-entry][get]", err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// ownsOrPlans loads the entry and checks the caller may change it.
func (h *TimeEntryHandler) ownsOrPlans(c *gin.Context, id int64) bool {
	e, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[time-entry][get]", err)
		return false
	}
	userID, roleID := getUserAndRole(c)
	if e.UserID != userID && !authz.CanPlan(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your time entry"})
		return false
	}
	return true
}

// PUT /time-entries/:id
func (h *TimeEntryHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok || !h.ownsOrPlans(c, id) {
		return
	}
	var req timeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := req.toEntry()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid started_at or ended_at"})
		return
	}
	updated, err := h.service.Update(c.Request.Context(), id, data)
	if err != nil {
		respondError(c, h.log, "[time-entry][update]", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DELETE /time-entries/:id
func (h *TimeEntryHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok || !h.ownsOrPlans(c, id) {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, "[time-entry][delete]", err)
		return
	}
	c.Status(http.StatusNoContent)
}
