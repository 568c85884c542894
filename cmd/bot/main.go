package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/firestation/dutybot/internal/application/service"
	"github.com/firestation/dutybot/internal/application/session"
	"github.com/firestation/dutybot/internal/application/workflow"
	"github.com/firestation/dutybot/internal/config"
	"github.com/firestation/dutybot/internal/infrastructure/external/lark"
	"github.com/firestation/dutybot/internal/infrastructure/persistence/repository"
	"github.com/firestation/dutybot/internal/infrastructure/persistence/sqlite"
	"github.com/firestation/dutybot/internal/infrastructure/storage"
	"github.com/firestation/dutybot/internal/infrastructure/worker"
	"github.com/firestation/dutybot/internal/report"
	"github.com/firestation/dutybot/internal/webhook"
	"github.com/firestation/dutybot/pkg/database"
	"github.com/firestation/dutybot/pkg/utils"
)

// sessionMaxAge is how long an abandoned conversation survives before the
// pruner drops it.
const sessionMaxAge = 30 * time.Minute

func main() {
	_ = gotenv.Load()

	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting duty bot", zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("failed to run database migrations", zap.Error(err))
	}

	// Repositories and the transaction manager share one connection pool.
	txManager := sqlite.NewDB(db.DB, logger)
	employees := repository.NewEmployeeRepository(db.DB, logger)
	vehicles := repository.NewVehicleRepository(db.DB, logger)
	equipment := repository.NewEquipmentRepository(db.DB, logger)
	shifts := repository.NewShiftRepository(db.DB, logger)
	dispatches := repository.NewDispatchRepository(db.DB, logger)
	equipmentLogs := repository.NewEquipmentLogRepository(db.DB, logger)
	absences := repository.NewAbsenceRepository(db.DB, logger)
	outbox := repository.NewNotificationRepository(db.DB, logger)

	sdkClient := lark.NewSDKClient(lark.Config{
		AppID:             cfg.Lark.AppID,
		AppSecret:         cfg.Lark.AppSecret,
		VerificationToken: cfg.Lark.VerificationToken,
	}, logger)
	messenger := lark.NewMessenger(sdkClient, logger)

	decisions := service.NewDecisionService(dispatches, employees, outbox, txManager, logger)
	reportArchive := storage.NewLocalFileStorage(cfg.Report.OutputDir, logger)
	reports := report.NewGenerator(dispatches, employees, vehicles, logger).WithArchive(reportArchive)
	sessions := session.NewStore()

	engine := workflow.NewEngine(workflow.Deps{
		Sessions:      sessions,
		Employees:     employees,
		Vehicles:      vehicles,
		Equipment:     equipment,
		Shifts:        shifts,
		Dispatches:    dispatches,
		EquipmentLogs: equipmentLogs,
		Absences:      absences,
		Outbox:        outbox,
		TxManager:     txManager,
		Decider:       decisions,
		Reports:       reports,
		Logger:        logger,
	})

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	workers := worker.NewManager(logger)
	workers.Register(worker.NewNotificationWorker(worker.NotificationWorkerConfig{
		PollInterval: cfg.Worker.PollInterval,
		BatchSize:    cfg.Worker.BatchSize,
		SendTimeout:  cfg.Worker.SendTimeout,
	}, outbox, messenger, logger))
	if err := workers.StartAll(rootCtx); err != nil {
		logger.Fatal("failed to start workers", zap.Error(err))
	}

	go pruneSessions(rootCtx, sessions, logger)

	verifier := webhook.NewVerifier(cfg.Lark.VerificationToken, cfg.Lark.EncryptKey, logger)
	handler := webhook.NewHandler(verifier, engine, messenger, logger)

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "dutybot",
			"time":    time.Now().Format(time.RFC3339),
		})
	})
	router.POST(cfg.Lark.WebhookPath, handler.Handle)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	rootCancel()

	if err := workers.StopAll(); err != nil {
		logger.Error("failed to stop workers", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	handler.Close()

	logger.Info("server exited")
}

func pruneSessions(ctx context.Context, sessions *session.Store, logger *zap.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.PruneOlderThan(sessionMaxAge); n > 0 {
				logger.Info("pruned idle conversations", zap.Int("count", n))
			}
		}
	}
}

func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
