package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"projectcrm/internal/authz"
	"projectcrm/internal/handlers"
	"projectcrm/internal/middleware"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Account   *handlers.AccountHandler
	Company   *handlers.CompanyHandler
	Task      *handlers.TaskHandler
	Project   *handlers.ProjectHandler
	Employee  *handlers.EmployeeHandler
	TimeEntry *handlers.TimeEntryHandler
	Alerts    *handlers.AlertHandler
}

var (
	planners     = []int{authz.RoleManager, authz.RoleAdmin}
	moneyReaders = []int{authz.RoleManager, authz.RoleFinance, authz.RoleAudit, authz.RoleAdmin}
)

func SetupRoutes(r *gin.Engine, h Handlers, tokens middleware.TokenParser) *gin.Engine {
	// ---- public
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.POST("/login", h.Auth.Login)

	// ---- protected
	r.Use(middleware.AuthMiddleware(tokens))
	r.Use(middleware.ReadOnlyGuard())

	r.GET("/me", h.Auth.Me)
	r.GET("/alerts/ws", h.Alerts.Subscribe)

	users := r.Group("/users")
	{
		users.POST("", middleware.RequireRoles(authz.RoleAdmin), h.User.CreateUser)
		users.GET("/:id", h.User.GetUserByID)
	}

	accounts := r.Group("/accounts")
	{
		accounts.POST("", h.Account.Create)
		accounts.GET("", h.Account.List)
		accounts.GET("/:id", h.Account.GetByID)
		accounts.PUT("/:id/parent", h.Account.SetParent)
		accounts.GET("/:id/ancestors", h.Account.Ancestors)
	}

	companies := r.Group("/companies")
	{
		companies.POST("", h.Company.Create)
		companies.GET("/:id", h.Company.GetByID)
		companies.PUT("/:id/parent", h.Company.SetParent)
		companies.GET("/:id/ancestors", h.Company.Ancestors)
	}

	tasks := r.Group("/tasks")
	{
		tasks.POST("", h.Task.Create)
		tasks.GET("", h.Task.GetAll)
		tasks.GET("/:id", h.Task.GetByID)
		tasks.PUT("/:id", h.Task.Update)
		tasks.DELETE("/:id", h.Task.Delete)
		tasks.PUT("/:id/status", h.Task.UpdateStatus)
		tasks.PUT("/:id/parent", h.Task.SetParent)
		tasks.GET("/:id/schedule", h.Task.Schedule)
		tasks.POST("/:id/progress", h.Task.RecalculateProgress)
		tasks.GET("/:id/time-entries", h.Task.TimeEntries)
		tasks.GET("/:id/billing", middleware.RequireRoles(moneyReaders...), h.Task.Billing)

		deps := tasks.Group("/:id/dependencies", middleware.RequireRoles(planners...))
		{
			deps.POST("", h.Task.AddDependency)
			deps.DELETE("/:depId", h.Task.RemoveDependency)
		}
	}

	projects := r.Group("/projects")
	{
		projects.POST("", h.Project.Create)
		projects.GET("", h.Project.List)
		projects.GET("/:id", h.Project.GetByID)
		projects.PUT("/:id", h.Project.Update)
		projects.GET("/:id/tasks", h.Project.ListTasks)
		projects.POST("/:id/tasks", h.Project.AttachTask)
		projects.DELETE("/:id/tasks/:taskId", h.Project.DetachTask)
		projects.GET("/:id/team", h.Project.ListTeam)
		projects.POST("/:id/team", middleware.RequireRoles(planners...), h.Project.AddTeamMember)
		projects.POST("/:id/progress", h.Project.RecalculateProgress)
		projects.POST("/:id/instantiate", middleware.RequireRoles(planners...), h.Project.CreateFromTemplate)

		money := projects.Group("", middleware.RequireRoles(moneyReaders...))
		{
			money.POST("/:id/actual-cost", h.Project.UpdateActualCost)
			money.GET("/:id/budget", h.Project.Budget)
			money.GET("/:id/time-logs", h.Project.ExportTimeLogs)
		}
	}

	employees := r.Group("/employees")
	{
		employees.POST("", middleware.RequireRoles(planners...), h.Employee.Create)
		employees.GET("/:id", h.Employee.GetByID)
		employees.GET("/:id/allocations", h.Employee.ListAllocations)
		employees.POST("/:id/allocations", middleware.RequireRoles(planners...), h.Employee.Allocate)
		employees.GET("/:id/capacity", h.Employee.Capacity)
	}

	entries := r.Group("/time-entries")
	{
		entries.POST("", h.TimeEntry.Create)
		entries.GET("/:id", h.TimeEntry.GetByID)
		entries.PUT("/:id", h.TimeEntry.Update)
		entries.DELETE("/:id", h.TimeEntry.Delete)
	}

	return r
}
