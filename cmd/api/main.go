package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"metalspot-service/internal/bootstrap"
	infraconfig "metalspot-service/internal/infrastructure/config"
	httpserver "metalspot-service/internal/infrastructure/http"
	"metalspot-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	logger := logx.L()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, cleanup, err := bootstrap.InitAPI(ctx)
	if err != nil {
		logger.Fatal("bootstrap", zap.Error(err))
	}
	defer cleanup()

	if _, err := app.Service.Seed(ctx, app.Store); err != nil {
		logger.Warn("snapshot seed failed", zap.Error(err))
	}
	if app.Config.WarmOnStart {
		warmCtx, warmCancel := context.WithTimeout(ctx, app.Config.RefreshTimeout)
		if err := app.Service.Warm(warmCtx); err != nil {
			logger.Warn("initial warm failed", zap.Error(err))
		}
		warmCancel()
	}
	go app.Warmer.Start(ctx)

	addr := ":" + app.Config.Port
	server := newHTTPServer(addr, httpserver.NewRouter(app.Server), cancel)

	go func() {
		logger.Info("server started", zap.String("addr", addr), zap.Strings("symbols", symbolNames(app)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shCancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
	defer shCancel()
	_ = server.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}

// newHTTPServer cancels the refresh context as soon as shutdown starts, so
// requests parked on an in-flight refresh resolve instead of holding Shutdown open.
func newHTTPServer(addr string, h http.Handler, stopRefreshes context.CancelFunc) *http.Server {
	server := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  infraconfig.DefaultReadTimeout,
		WriteTimeout: infraconfig.DefaultWriteTimeout,
	}
	server.RegisterOnShutdown(stopRefreshes)
	return server
}

func symbolNames(app *bootstrap.App) []string {
	syms := app.Service.Symbols()
	out := make([]string, 0, len(syms))
	for _, s := range syms {
		out = append(out, string(s))
	}
	return out
}
