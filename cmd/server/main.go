package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avdeevdm/auth-service/internal/auth"
	"github.com/avdeevdm/auth-service/internal/db"
	"github.com/avdeevdm/auth-service/internal/email"
	"github.com/avdeevdm/auth-service/internal/logging"
	"github.com/avdeevdm/auth-service/internal/security"
	"github.com/avdeevdm/auth-service/internal/token"
	"github.com/avdeevdm/auth-service/internal/user"
	"github.com/avdeevdm/auth-service/pkg/config"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	database, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}
	defer database.Close()

	alerts := security.NewDispatcher(security.MultiSink{
		security.NewLogSink(log),
		email.NewAlertNotifier(os.Stdout),
	}, 64)
	defer alerts.Close()

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo, log)
	issuer := token.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	tokenSvc := token.NewService(database, issuer, userRepo, alerts, log, cfg.RefreshTokenTTL)
	handler := auth.NewHandler(userSvc, tokenSvc, cfg.RefreshTokenTTL, log)

	router := gin.Default()
	handler.RegisterRoutes(router, issuer)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info(ctx, "server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "shutdown error", "error", err)
	}
}
