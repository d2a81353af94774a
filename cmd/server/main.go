package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/caddieworks/myloopcount/internal/auth"
	"github.com/caddieworks/myloopcount/internal/config"
	"github.com/caddieworks/myloopcount/internal/db"
	"github.com/caddieworks/myloopcount/internal/logging"
	"github.com/caddieworks/myloopcount/internal/mail"
	"github.com/caddieworks/myloopcount/internal/models"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	log, err := logging.New(logging.ConfigFromEnv())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Load()

	conn, err := db.Connect(cfg.DatabaseDSN, os.Getenv("DB_DEBUG") == "1")
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.Migrate(conn, cfg.DatabaseDSN, cfg.Migrations); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	if *migrateOnlyFlag {
		log.Info("migrations completed")
		return
	}

	// Sessions only count for users that still exist and are active.
	auth.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		var count int64
		conn.Model(&models.User{}).Where("id = ? AND active = ?", uid, true).Count(&count)
		return count > 0
	})

	mailer := mail.NewSMTPMailer(cfg.SMTP)
	app := NewApp(conn, mailer, cfg.BaseURL)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      logging.RequestLogger(log)(app),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	log.Info("server stopped gracefully")
}
