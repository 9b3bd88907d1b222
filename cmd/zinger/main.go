package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zingerhq/zinger/internal/ai"
	"github.com/zingerhq/zinger/internal/backup"
	"github.com/zingerhq/zinger/internal/config"
	"github.com/zingerhq/zinger/internal/database"
	"github.com/zingerhq/zinger/internal/email"
	"github.com/zingerhq/zinger/internal/logging"
	"github.com/zingerhq/zinger/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	emailClient := email.NewClient(cfg.MailjetAPIKey, cfg.MailjetAPISecret, cfg.MailjetFromEmail, cfg.MailjetFromName)
	aiClient := ai.NewClient(cfg.GeminiAPIKey)

	srv := server.New(db, server.Config{
		CronSecret:      cfg.CronSecret,
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
	}, emailClient, aiClient, logger)

	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.BackupS3Endpoint,
			Region:    cfg.BackupS3Region,
			Bucket:    cfg.BackupS3Bucket,
			AccessKey: cfg.BackupS3AccessKey,
			SecretKey: cfg.BackupS3SecretKey,
		},
		DBPath:     cfg.DBPath,
		Passphrase: cfg.BackupPassphrase,
	}, db, logger.With("component", "backup"))

	// Daily reconciliation runs at the configured local time. Manual runs
	// via /api/cron share the same runner, so dedup holds across both.
	hour, minute, _ := config.ParseClock(cfg.ReconcileAt)
	scheduler := cron.New()
	scheduler.AddFunc(fmt.Sprintf("%d %d * * *", minute, hour), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		report, err := srv.Runner().Run(ctx, time.Now())
		if err != nil {
			slog.Error("scheduled reconciliation failed", "error", err)
			return
		}
		slog.Info("scheduled reconciliation complete",
			"scanned", report.PlansScanned,
			"updated", report.PlansUpdated,
			"deleted", report.PlansDeleted,
			"notifications", report.NotificationsCreated,
			"summaries", report.SummariesSent,
			"failures", len(report.Failures),
		)
	})
	if backupMgr.Configured() {
		scheduler.AddFunc(cfg.BackupSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if _, err := backupMgr.Run(ctx); err != nil {
				slog.Error("scheduled backup failed", "error", err)
			}
		})
	}
	scheduler.Start()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				if _, err := srv.MagicLinkStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired sign-in codes", "error", err)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("zinger starting", "addr", ":"+cfg.Port, "base_url", cfg.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
