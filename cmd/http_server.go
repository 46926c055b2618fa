package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/auth"
	authPostgres "github.com/frahmantamala/separation-management/internal/auth/postgres"
	"github.com/frahmantamala/separation-management/internal/core/events"
	"github.com/frahmantamala/separation-management/internal/department"
	departmentPostgres "github.com/frahmantamala/separation-management/internal/department/postgres"
	"github.com/frahmantamala/separation-management/internal/handover"
	handoverPostgres "github.com/frahmantamala/separation-management/internal/handover/postgres"
	"github.com/frahmantamala/separation-management/internal/notification"
	notificationPostgres "github.com/frahmantamala/separation-management/internal/notification/postgres"
	"github.com/frahmantamala/separation-management/internal/realtime"
	"github.com/frahmantamala/separation-management/internal/report"
	reportPostgres "github.com/frahmantamala/separation-management/internal/report/postgres"
	"github.com/frahmantamala/separation-management/internal/separation"
	separationPostgres "github.com/frahmantamala/separation-management/internal/separation/postgres"
	"github.com/frahmantamala/separation-management/internal/template"
	templatePostgres "github.com/frahmantamala/separation-management/internal/template/postgres"
	"github.com/frahmantamala/separation-management/internal/transport"
	"github.com/frahmantamala/separation-management/internal/transport/middleware"
	"github.com/frahmantamala/separation-management/internal/transport/rest"
	"github.com/frahmantamala/separation-management/internal/user"
	userPostgres "github.com/frahmantamala/separation-management/internal/user/postgres"
	"github.com/frahmantamala/separation-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	Gorm       *gorm.DB
	Router     *chi.Mux
	EventBus   *events.EventBus
	Dispatcher *notification.Dispatcher
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.EventBus.Wait()
	deps.Dispatcher.Shutdown()
	if err := deps.DB.Close(); err != nil {
		deps.Logger.Error("Database close error", "error", err)
	}
	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger
	db := deps.Gorm
	base := transport.NewBaseHandler(lg)

	authService := auth.NewService(
		authPostgres.NewRepository(db),
		auth.NewJWTTokenGenerator(
			cfg.Security.JWTAccessSecret,
			cfg.Security.JWTRefreshSecret,
			cfg.Security.AccessTokenDuration,
			cfg.Security.RefreshTokenDuration,
		),
		cfg.Security.BCryptCost,
		lg,
	)

	userService := user.NewService(userPostgres.NewUserRepository(db), cfg.Security.BCryptCost, lg)
	departmentService := department.NewService(departmentPostgres.NewDepartmentRepository(db), lg)
	templateService := template.NewService(templatePostgres.NewTemplateRepository(db), lg)

	separationService := separation.NewService(
		separationPostgres.NewSeparationRepository(db),
		userService,
		departmentService,
		templateService,
		deps.EventBus,
		cfg.Separation,
		lg,
	)
	handoverService := handover.NewService(
		handoverPostgres.NewHandoverRepository(db),
		separationService,
		handover.NewLocalCalendar(lg),
		lg,
	)
	reportService := report.NewService(reportPostgres.NewReportRepository(deps.DB), lg)

	notificationService := notification.NewService(
		notificationPostgres.NewNotificationRepository(db),
		deps.Dispatcher,
		notification.NewSender(cfg.Notification, lg),
		cfg.Notification.Timeout,
		lg,
	)
	deps.Dispatcher.Start(notificationService.Deliver)
	notification.NewEventHandler(notificationService, lg).RegisterEventHandlers(deps.EventBus)

	hub := realtime.NewHub(lg)
	hub.RegisterEventHandlers(deps.EventBus)

	var validator func(http.Handler) http.Handler
	if cfg.OpenAPI.ValidateRequests {
		doc, err := middleware.LoadSpec(context.Background(), cfg.OpenAPI.SpecPath)
		if err != nil {
			return err
		}
		validator, err = middleware.OpenAPIValidator(doc, lg)
		if err != nil {
			return err
		}
	}

	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Health:     rest.NewHealthHandler(base, map[string]rest.Pinger{"postgres": deps.DB}),
		Auth:       auth.NewHandler(authService),
		RBAC:       auth.NewRBACAuthorization(lg),
		User:       user.NewHandler(base, userService, cfg.Separation.DefaultPerPage, cfg.Separation.MaxPerPage),
		Department: department.NewHandler(base, departmentService),
		Template:   template.NewHandler(base, templateService),
		Separation: separation.NewHandler(base, separationService, cfg.Separation.DefaultPerPage, cfg.Separation.MaxPerPage),
		Handover:   handover.NewHandler(base, handoverService),
		Report:     report.NewHandler(base, reportService),
		Stream:     realtime.NewHandler(base, separationService, hub, cfg.Server.Origins()),
	}, rest.Options{
		AllowedOrigins: cfg.Server.Origins(),
		SpecPath:       cfg.OpenAPI.SpecPath,
		Validator:      validator,
		Logger:         lg,
	})
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	return &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		Gorm:     gdb,
		Router:   chi.NewRouter(),
		EventBus: events.NewEventBus(lg),
		Dispatcher: notification.NewDispatcher(notification.DispatcherConfig{
			MaxWorkers: config.Notification.MaxWorkers,
			QueueSize:  config.Notification.QueueSize,
		}, lg),
	}, nil
}

// initDB opens the shared pgx pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Open(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbConn, nil
}

// initGorm layers gorm over the sqlx pool so both share connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
}
