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

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/attachment"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/leave"
	"github.com/frahmantamala/leave-management/internal/leave/postgres"
	"github.com/frahmantamala/leave-management/internal/notification"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/internal/transport/rest"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
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
	Config   *internal.Config
	DB       *gorm.DB
	Router   *chi.Mux
	Logger   *slog.Logger
	EventBus *events.EventBus
	closers  []func() error
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
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

	// Signal handling for graceful shutdown
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
		if err := deps.EventBus.Drain(ctx); err != nil {
			deps.Logger.Warn("Pending notifications abandoned", "error", err)
		}
		deps.Close()
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.Error("Shutdown close error", "error", err)
		}
	}
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := setupLogger(config)

	deps := &Dependencies{Config: config, Logger: lg, Router: chi.NewRouter()}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.DB = db
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database pool: %w", err)
	}
	deps.closers = append(deps.closers, sqlDB.Close)

	repo, err := postgres.NewLeaveRepository(db, lg)
	if err != nil {
		deps.Close()
		return nil, err
	}

	deps.EventBus = events.NewEventBus(lg)
	notification.NewSubscriber(
		initMailer(config.Notification, lg),
		notification.AddressResolver{DefaultDomain: config.Notification.RecipientDomain},
		lg,
	).Register(deps.EventBus)

	leaveService := leave.NewService(repo, notification.NewBusNotifier(deps.EventBus), lg)

	store, closeStore, err := initAttachmentStore(ctx, config.Attachments)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to initialize attachment store: %w", err)
	}
	if closeStore != nil {
		deps.closers = append(deps.closers, closeStore)
	}

	base := transport.NewBaseHandler(lg)
	tokens := auth.NewJWTTokenManager(config.Security.JWTSecret, config.Security.JWTIssuer, config.Security.AccessTokenDuration)
	rules := attachment.NewRules(config.Attachments.MaxFileBytes, config.Attachments.Extensions())

	rest.RegisterAllRoutes(deps.Router, rest.RouterDeps{
		Server:      config.Server,
		Verifier:    tokens,
		ManagerRole: config.Security.ManagerRole,
		HealthChecks: map[string]rest.Checker{
			"database": sqlDB.PingContext,
		},
		LeaveHandler:      leave.NewHandler(base, leaveService, config.Security.ManagerRole),
		AttachmentHandler: attachment.NewHandler(base, store, rules),
		Logger:            lg,
	})

	return deps, nil
}

// initDB opens the GORM handle for the configured driver and sizes its pool.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case internal.DatabaseDriverSQLite:
		dialector = sqlite.Open(cfg.Source)
	default:
		dialector = gormpostgres.New(gormpostgres.Config{DSN: cfg.Source, DriverName: "pgx"})
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func initAttachmentStore(ctx context.Context, cfg internal.AttachmentConfig) (attachment.Store, func() error, error) {
	rules := attachment.NewRules(cfg.MaxFileBytes, cfg.Extensions())

	if cfg.Provider == internal.AttachmentProviderGCS {
		store, err := attachment.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsJSON, rules)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}

	store, err := attachment.NewLocalStore(afero.NewOsFs(), cfg.LocalDir, cfg.PublicPrefix, rules)
	if err != nil {
		return nil, nil, err
	}
	return store, nil, nil
}

func initMailer(cfg internal.NotificationConfig, lg *slog.Logger) notification.Mailer {
	if cfg.SendGridAPIKey == "" || cfg.FromAddress == "" {
		lg.Warn("SendGrid not configured, leave decisions will only be logged")
		return notification.NewLogMailer(lg)
	}
	return notification.NewSendGridMailer(cfg.SendGridAPIKey, cfg.FromAddress, cfg.FromName, lg)
}
