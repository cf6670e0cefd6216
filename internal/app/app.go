package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "projectcrm/docs"
	"projectcrm/internal/config"
	"projectcrm/internal/db"
	"projectcrm/internal/handlers"
	"projectcrm/internal/middleware"
	"projectcrm/internal/notify"
	"projectcrm/internal/pdf"
	"projectcrm/internal/realtime"
	"projectcrm/internal/repositories"
	"projectcrm/internal/routes"
	"projectcrm/internal/services"
)

type App struct {
	cfg *config.Config
	log *zap.SugaredLogger
	db  *sql.DB

	Projects services.ProjectService
	Router   *gin.Engine
}

// New opens the database and wires repositories, services and the HTTP router.
func New(cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	database, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	// === Repos ===
	tx := repositories.NewTxRunner(database)
	userRepo := repositories.NewUserRepository(database)
	accountRepo := repositories.NewAccountRepository(database)
	companyRepo := repositories.NewCompanyRepository(database)
	taskRepo := repositories.NewTaskRepository(database)
	projectRepo := repositories.NewProjectRepository(database)
	employeeRepo := repositories.NewEmployeeRepository(database)
	entryRepo := repositories.NewTimeEntryRepository(database)

	// === Services ===
	authService := services.NewAuthService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.AccessTTLMinutes)*time.Minute)
	userService := services.NewUserService(userRepo, authService)
	accountService := services.NewAccountService(accountRepo, tx)
	companyService := services.NewCompanyService(companyRepo, tx)
	taskService := services.NewTaskService(taskRepo, entryRepo, tx)
	entryService := services.NewTimeEntryService(entryRepo, taskRepo, userRepo, tx)
	alerts := realtime.NewAlertHub()
	notifier := notify.Multi{alerts, buildNotifier(cfg.Notify, log)}
	allocationService := services.NewAllocationService(employeeRepo, taskRepo, projectRepo, tx, notifier, log)
	projectService := services.NewProjectService(
		projectRepo, taskRepo, entryRepo, userRepo, tx,
		notifier,
		log,
	)

	docs := pdf.NewDocumentGenerator(cfg.Files.RootDir, cfg.Files.FontPath)

	// === Gin ===
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(corsMiddleware())

	routes.SetupRoutes(router, routes.Handlers{
		Auth:      handlers.NewAuthHandler(userService, log),
		User:      handlers.NewUserHandler(userService, log),
		Account:   handlers.NewAccountHandler(accountService, log),
		Company:   handlers.NewCompanyHandler(companyService, log),
		Task:      handlers.NewTaskHandler(taskService, entryService, log),
		Project:   handlers.NewProjectHandler(projectService, docs, log),
		Employee:  handlers.NewEmployeeHandler(allocationService, log),
		TimeEntry: handlers.NewTimeEntryHandler(entryService, log),
		Alerts:    handlers.NewAlertHandler(alerts, log),
	}, authService)

	return &App{
		cfg:      cfg,
		log:      log,
		db:       database,
		Projects: projectService,
		Router:   router,
	}, nil
}

// DB exposes the connection for maintenance commands.
func (a *App) DB() *sql.DB { return a.db }

func (a *App) Close() error {
	return a.db.Close()
}

// Serve runs the HTTP server until ctx is cancelled, then drains in-flight requests.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infow("[app] listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Infow("[app] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// buildNotifier fans out to every configured channel; with none configured it is a no-op.
func buildNotifier(cfg config.NotifyConfig, log *zap.SugaredLogger) notify.Notifier {
	var out notify.Multi

	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			log.Warnw("[app] telegram disabled", "err", err)
		} else {
			out = append(out, tg)
		}
	}
	if len(cfg.Email.Recipients) > 0 && cfg.Email.SMTPHost != "" {
		out = append(out, notify.NewEmailNotifier(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
			cfg.Email.Recipients,
		))
	}
	if len(cfg.SMS.Recipients) > 0 {
		out = append(out, notify.NewSMSNotifier(cfg.SMS.APIKey, cfg.SMS.Sender, cfg.SMS.Recipients, cfg.SMS.DryRun, log))
	}

	if len(out) == 0 {
		return notify.Nop{}
	}
	return out
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
