package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectcrm/internal/models"
	"projectcrm/internal/services"
)

type TaskHandler struct {
	service services.TaskService
	entries services.TimeEntryService
	log     *zap.SugaredLogger
}

func NewTaskHandler(service services.TaskService, entries services.TimeEntryService, log *zap.SugaredLogger) *TaskHandler {
	return &TaskHandler{service: service, entries: entries, log: log}
}

type taskRequest struct {
	ParentID        *int64              `json:"parent_id"`
	AssigneeID      *int64              `json:"assignee_id"`
	Title           string              `json:"title" binding:"required"`
	Description     string              `json:"description"`
	StartDate       string              `json:"start_date"` // RFC3339 or YYYY-MM-DD
	EndDate         string              `json:"end_date"`
	PercentComplete float64             `json:"percent_complete"`
	Priority        models.TaskPriority `json:"priority"`
	Status          models.TaskStatus   `json:"status"`
}

func (r taskRequest) toTask() (*models.Task, error) {
	start, err := parseOptionalTime(r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalTime(r.EndDate)
	if err != nil {
		return nil, err
	}
	return &models.Task{
		ParentID:        r.ParentID,
		AssigneeID:      r.AssigneeID,
		Title:           r.Title,
		Description:     r.Description,
		StartDate:       start,
		EndDate:         end,
		PercentComplete: r.PercentComplete,
		Priority:        r.Priority,
		Status:          r.Status,
	}, nil
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	userID, roleID := getUserAndRole(c)
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := req.toTask()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date or end_date"})
		return
	}
	task.CreatorID = userID

	created, err := h.service.Create(c.Request.Context(), task)
	if err != nil {
		respondError(c, h.log, "[task][create]", err)
		return
	}
	h.log.Infow("[task][create] ok", "task_id", created.ID, "user_id", userID, "role_id", roleID)
	c.JSON(http.StatusCreated, created)
}

// GET /tasks?parent_id=&assignee_id=&status=&project_id=
func (h *TaskHandler) GetAll(c *gin.Context) {
	var filter models.TaskFilter
	for key, dst := range map[string]**int64{
		"parent_id":   &filter.ParentID,
		"assignee_id": &filter.AssigneeID,
		"project_id":  &filter.ProjectID,
	} {
		if v := c.Query(key); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
				return
			}
			*dst = &n
		}
	}
	if v := c.Query("status"); v != "" {
		st := models.TaskStatus(v)
		filter.Status = &st
	}

	tasks, err := h.service.GetAll(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, "[task][list]", err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	task, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[task][get]", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// PUT /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := req.toTask()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date or end_date"})
		return
	}
	updated, err := h.service.Update(c.Request.Context(), id, data)
	if err != nil {
		respondError(c, h.log, "[task][update]", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, "[task][delete]", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PATCH /tasks/:id/status
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		To models.TaskStatus `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := h.service.UpdateStatus(c.Request.Context(), id, req.To)
	if err != nil {
		respondError(c, h.log, "[task][status]", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary      Move a task under another task
// @Description  Rejected with 422 when the new parent is the task itself or one of its subtasks
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        id    path      int               true  "Task ID"
// @Param        body  body      setParentRequest  true  "New parent (null for top level)"
// @Success      200   {object}  models.Task
// @Failure      422   {object}  map[string]string
// @Router       /tasks/{id}/parent [put]
func (h *TaskHandler) SetParent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req setParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := h.service.SetParent(c.Request.Context(), id, req.ParentID)
	if err != nil {
		respondError(c, h.log, "[task][parent]", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// POST /tasks/:id/dependencies
func (h *TaskHandler) AddDependency(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		DependsOnID int64 `json:"depends_on_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.AddDependency(c.Request.Context(), id, req.DependsOnID); err != nil {
		respondError(c, h.log, "[task][dependency][add]", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task_id": id, "depends_on_id": req.DependsOnID})
}

// DELETE /tasks/:id/dependencies/:depId
func (h *TaskHandler) RemoveDependency(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	depID, ok := parseIDParam(c, "depId")
	if !ok {
		return
	}
	if err := h.service.RemoveDependency(c.Request.Context(), id, depID); err != nil {
		respondError(c, h.log, "[task][dependency][remove]", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /tasks/:id/schedule
func (h *TaskHandler) Schedule(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	sched, err := h.service.Schedule(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[task][schedule]", err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

// POST /tasks/:id/progress
func (h *TaskHandler) RecalculateProgress(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	pct, err := h.service.RecalculatePercentComplete(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[task][progress]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": id, "percent_complete": pct})
}

// GET /tasks/:id/billing
func (h *TaskHandler) Billing(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	billing, err := h.service.Billing(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[task][billing]", err)
		return
	}
	c.JSON(http.StatusOK, billing)
}

// GET /tasks/:id/time-entries
func (h *TaskHandler) TimeEntries(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	list, err := h.entries.ListByTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[task][time-entries]", err)
		return
	}
	if list == nil {
		list = []models.TaskTimeEntry{}
	}
	c.JSON(http.StatusOK, list)
}
