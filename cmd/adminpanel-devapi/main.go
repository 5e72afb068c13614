package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jask/adminpanel/internal/config"
	"github.com/jask/adminpanel/internal/database"
	"github.com/jask/adminpanel/internal/database/repository"
	"github.com/jask/adminpanel/internal/devapi"
	"github.com/jask/adminpanel/internal/logging"
	"github.com/jask/adminpanel/internal/testdata"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	dc := cfg.DevAPI
	logger := logging.New(os.Stderr, cfg.Log.Level).With("app", "adminpanel-devapi")
	if logging.ParseLevel(cfg.Log.Level) != slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := os.MkdirAll(filepath.Dir(dc.DatabasePath), 0o755); err != nil {
		return fmt.Errorf("mkdir db dir: %w", err)
	}
	db, err := database.OpenMigrated(dc.DatabasePath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	store := repository.NewStore(db)
	admins := repository.NewAdminRepo(db)
	if err := testdata.Seed(context.Background(), store, admins, testdata.Options{
		Rows:          dc.SeedRows,
		Seed:          1,
		Now:           time.Now().UTC(),
		AdminEmail:    dc.AdminEmail,
		AdminPassword: dc.AdminPassword,
	}); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if dc.JWTSecret == "change-me" {
		logger.Warn("using the default JWT secret; set devapi.jwt_secret")
	}

	srv := &http.Server{
		Addr: dc.Addr,
		Handler: devapi.New(store, admins, devapi.Options{
			JWTSecret:   []byte(dc.JWTSecret),
			TokenTTL:    dc.TokenTTL,
			CORSOrigins: dc.CORSOrigins,
			Logger:      logger,
		}).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", dc.Addr, "admin", dc.AdminEmail)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-quit:
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
