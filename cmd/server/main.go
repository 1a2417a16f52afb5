package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"notifyd/internal/app"
	"notifyd/internal/broadcast"
	"notifyd/internal/config"
	"notifyd/internal/history"
	"notifyd/internal/logging"
	"notifyd/internal/push"
	"notifyd/internal/server"
	"notifyd/internal/store"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupKeys(cfg *config.Config) push.VAPIDKeys {
	keys, generated, err := push.ResolveKeys(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	if err != nil {
		slog.Error("Failed to resolve VAPID keys", "error", err)
		os.Exit(1)
	}
	if generated {
		slog.Warn("VAPID keys were auto-generated for this process; " +
			"set VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY so subscriptions survive restarts")
	}
	return keys
}

func runGracefulShutdown(srv *server.Server, broadcaster *broadcast.Broadcaster) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		broadcaster.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	keys := setupKeys(cfg)

	subscriptions := store.New(cfg.SubscriptionsFile)
	buffer := history.NewBuffer(history.DefaultCapacity)
	broadcaster := broadcast.NewBroadcaster(buffer, clock)

	sender := push.NewWebpushSender(keys, cfg.VAPIDSubscriber)
	dispatcher := push.NewDispatcher(sender, subscriptions)

	intake := app.NewService(buffer, broadcaster, dispatcher, clock)

	srv := server.NewServer(cfg, intake, buffer, subscriptions, broadcaster, keys.Public)

	done := runGracefulShutdown(srv, broadcaster)

	slog.Info("Server starting", "port", cfg.Port, "subscribers", subscriptions.Count())
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
