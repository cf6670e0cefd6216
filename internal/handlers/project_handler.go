package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectcrm/internal/models"
	"projectcrm/internal/pdf"
	"projectcrm/internal/services"
)

type ProjectHandler struct {
	service services.ProjectService
	docs    pdf.Generator
	log     *zap.SugaredLogger
}

func NewProjectHandler(service services.ProjectService, docs pdf.Generator, log *zap.SugaredLogger) *ProjectHandler {
	return &ProjectHandler{service: service, docs: docs, log: log}
}

type projectRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Budget      *float64 `json:"budget"`
	Currency    string   `json:"currency"`
	IsTemplate  bool     `json:"is_template"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
}

func (r projectRequest) toProject() (*models.Project, error) {
	start, err := parseOptionalTime(r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalTime(r.EndDate)
	if err != nil {
		return nil, err
	}
	return &models.Project{
		Name:        r.Name,
		Description: r.Description,
		Budget:      r.Budget,
		Currency:    r.Currency,
		IsTemplate:  r.IsTemplate,
		StartDate:   start,
		EndDate:     end,
	}, nil
}

// POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := req.toProject()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date or end_date"})
		return
	}
	p.OwnerID, _ = getUserAndRole(c)
	created, err := h.service.Create(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.log, "[project][create]", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GET /projects?templates=true
func (h *ProjectHandler) List(c *gin.Context) {
	includeTemplates, _ := strconv.ParseBool(c.DefaultQuery("templates", "false"))
	list, err := h.service.List(c.Request.Context(), includeTemplates)
	if err != nil {
		respondError(c, h.log, "[project][list]", err)
		return
	}
	if list == nil {
		list = []models.Project{}
	}
	c.JSON(http.StatusOK, list)
}

// GET /projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	p, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[project][get]", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PUT /projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := req.toProject()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date or end_date"})
		return
	}
	p, err := h.service.Update(c.Request.Context(), id, data)
	if err != nil {
		respondError(c, h.log, "[project][update]", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /projects/:id/tasks
func (h *ProjectHandler) AttachTask(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		TaskID int64 `json:"task_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.AttachTask(c.Request.Context(), id, req.TaskID); err != nil {
		respondError(c, h.log, "[project][attach]", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project_id": id, "task_id": req.TaskID})
}

// DELETE /projects/:id/tasks/:taskId
func (h *ProjectHandler) DetachTask(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "taskId")
	if !ok {
		return
	}
	if err := h.service.DetachTask(c.Request.Context(), id, taskID); err != nil {
		respondError(c, h.log, "[project][detach]", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /projects/:id/tasks
func (h *ProjectHandler) ListTasks(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tasks, err := h.service.ListTasks(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[project][tasks]", err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

// POST /projects/:id/team
func (h *ProjectHandler) AddTeamMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		UserID               int64   `json:"user_id" binding:"required"`
		Role                 string  `json:"role"`
		AllocationPercentage float64 `json:"allocation_percentage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.service.AddTeamMember(c.Request.Context(), &models.TeamMember{
		ProjectID:            id,
		UserID:               req.UserID,
		Role:                 req.Role,
		AllocationPercentage: req.AllocationPercentage,
	})
	if err != nil {
		respondError(c, h.log, "[project][team]", err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// GET /projects/:id/team
func (h *ProjectHandler) ListTeam(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	team, err := h.service.ListTeam(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[project][team]", err)
		return
	}
	if team == nil {
		team = []models.TeamMember{}
	}
	c.JSON(http.StatusOK, team)
}

// POST /projects/:id/progress
func (h *ProjectHandler) RecalculateProgress(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	pct, err := h.service.RecalculatePercentComplete(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[project][progress]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_id": id, "percent_complete": pct})
}

// POST /projects/:id/actual-cost
func (h *ProjectHandler) UpdateActualCost(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	p, err := h.service.UpdateActualCost(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[project][actual-cost]", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Budget summary
// @Description  Budget, actual cost, variance, utilization and per-task billing. format=pdf returns a PDF report.
// @Tags         Projects
// @Produce      json
// @Produce      application/pdf
// @Param        id      path   int     true   "Project ID"
// @Param        format  query  string  false  "json (default) or pdf"
// @Success      200  {object}  models.BudgetSummary
// @Failure      404  {object}  map[string]string
// @Router       /projects/{id}/budget [get]
func (h *ProjectHandler) Budget(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	summary, err := h.service.BudgetSummary(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[project][budget]", err)
		return
	}
	if c.Query("format") != "pdf" {
		c.JSON(http.StatusOK, summary)
		return
	}

	var buf bytes.Buffer
	if err := h.docs.RenderBudget(&buf, *summary); err != nil {
		respondError(c, h.log, "[project][budget][pdf]", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="budget_project_%d.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

var timeLogHeader = []string{
	"entry_id", "task_id", "task_title", "user_id", "user_name", "started_at", "ended_at",
	"duration_minutes", "duration_hours", "is_billable", "billing_rate", "billing_amount", "description",
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func timeLogRecord(r models.TimeLogRow) []string {
	rate := ""
	if r.BillingRate != nil {
		rate = strconv.FormatFloat(*r.BillingRate, 'f', 2, 64)
	}
	return []string{
		strconv.FormatInt(r.EntryID, 10),
		strconv.FormatInt(r.TaskID, 10),
		r.TaskTitle,
		strconv.FormatInt(r.UserID, 10),
		r.UserName,
		formatTimePtr(r.StartedAt),
		formatTimePtr(r.EndedAt),
		strconv.Itoa(r.DurationMinutes),
		strconv.FormatFloat(r.DurationHours, 'f', 2, 64),
		strconv.FormatBool(r.IsBillable),
		rate,
		strconv.FormatFloat(r.BillingAmount, 'f', 2, 64),
		r.Description,
	}
}

// GET /projects/:id/time-logs?format=csv
func (h *ProjectHandler) ExportTimeLogs(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.service.ExportTimeLogs(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "[project][time-logs]", err)
		return
	}
	if c.Query("format") != "csv" {
		if rows == nil {
			rows = []models.TimeLogRow{}
		}
		c.JSON(http.StatusOK, rows)
		return
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(timeLogHeader)
	for _, r := range rows {
		_ = w.Write(timeLogRecord(r))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		respondError(c, h.log, "[project][time-logs][csv]", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="time_logs_project_%d.csv"`, id))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// @Summary      Create a project from a template
// @Description  Copies tasks, subtask links and dependencies. 422 when the source is not a template.
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "Template project ID"
// @Success      201  {object}  models.Project
// @Failure      422  {object}  map[string]string
// @Router       /projects/{id}/instantiate [post]
func (h *ProjectHandler) CreateFromTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name      string `json:"name"`
		StartDate string `json:"start_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := parseOptionalTime(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	userID, _ := getUserAndRole(c)
	p, err := h.service.CreateFromTemplate(c.Request.Context(), id, req.Name, start, userID)
	if err != nil {
		respondError(c, h.log, "[project][template]", err)
		return
	}
	h.log.Infow("[project][template] instantiated", "template_id", id, "project_id", p.ID)
	c.JSON(http.StatusCreated, p)
}
