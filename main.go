package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jai-platform/jai-api/api/handlers"
	"github.com/jai-platform/jai-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if a.Config.JWTSecret == "" {
		zap.S().Fatal("JWT_SECRET must be set")
	}

	if err := a.Initialize(); err != nil { //initialize database and router
		zap.S().Fatalw("failed to initialize", "error", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", a.Config.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.S().Infow("jai-api is up and running",
			"port", a.Config.Port,
			"url", a.Config.BaseURL,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalw("server stopped", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	zap.S().Info("shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		zap.S().Warnw("graceful shutdown failed", "error", err)
	}
	a.Close(ctx)
	_ = zap.L().Sync()
}
