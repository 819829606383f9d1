package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"docbrief/internal/ai"
	"docbrief/internal/config"
	"docbrief/internal/db"
	"docbrief/internal/filestore"
	"docbrief/internal/handler"
	"docbrief/internal/job"
	"docbrief/internal/repo"
	"docbrief/internal/schedule"
	"docbrief/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docbrief",
		Short: "docbrief backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docbrief server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.DB)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("db_host", cfg.DB.Host),
		zap.String("file_store", cfg.FileStore.Type),
	)

	userRepo := repo.NewUserRepo(conn)
	counterRepo := repo.NewCounterRepo(conn)
	statsRepo := repo.NewStatsRepo(conn)
	historyRepo := repo.NewHistoryRepo(conn)
	eventRepo := repo.NewEventRepo(conn)

	authService := service.NewAuthService(userRepo, counterRepo, cfg.Auth)
	statsService := service.NewStatsService(statsRepo, historyRepo)
	trackingService := service.NewTrackingService(eventRepo)

	aiProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	summarizeService := service.NewSummarizeService(aiProvider, cfg.AI, statsService, trackingService, store)

	engine := gin.New()
	engine.Use(gin.Recovery())
	handler.RegisterRoutes(engine, handler.RouterDeps{
		Config:    cfg,
		Auth:      authService,
		Stats:     statsService,
		Summarize: summarizeService,
		Tracking:  trackingService,
		Files:     handler.NewFileHandler(store),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewScheduler()
	cleanup := job.NewEventCleanupJob(eventRepo, cfg.Retention.EventKeepDays)
	if err := scheduler.AddJob(cleanup, cfg.Retention.CleanupSpec, 5*time.Minute); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: engine}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
