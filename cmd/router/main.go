// Command router is the hub's single binary: with no recognized
// subcommand it starts the daemon (HTTP + stream adapters over one
// listening socket); with a recognized subcommand ({health,
// conversations, timeline, ingest, respond}) it acts as a CLI client
// against a running daemon, per spec.md §4.5/§4.8.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/danor93/chat-router/internal/cli"
	"github.com/danor93/chat-router/internal/config"
	"github.com/danor93/chat-router/internal/httpapi"
	"github.com/danor93/chat-router/internal/service"
	"github.com/danor93/chat-router/internal/store"
	"github.com/danor93/chat-router/internal/streamapi"
	"github.com/danor93/chat-router/internal/trigger"
	"github.com/danor93/chat-router/internal/workers"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "router",
		Short: "chat-router: a multi-transport chat routing hub",
		Args:  cobra.ArbitraryArgs,
		Run:   runDaemon,
	}

	routerURL := func() string {
		if u := viper.GetString("CHAT_ROUTER_URL"); u != "" {
			return u
		}
		return "http://localhost:3100"
	}
	viper.AutomaticEnv()

	rootCmd.AddCommand(cli.BuildCommands(routerURL)...)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Environment == "development" {
		opts.Level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, opts)))

	// 1. Create store, open it.
	st, err := store.Open(cfg.DataDir)
	if err != nil {
		slog.Error("fatal startup error: failed to open store", "error", err)
		os.Exit(1)
	}

	// 2. Create service with the store.
	svc := service.New(st)

	// Optional dependency injection: a concrete Trigger is always held,
	// never a nullable reference checked at the call site.
	var trig trigger.Trigger = trigger.Noop{}
	if cfg.ACSJobName != "" {
		trig = trigger.NewACS(cfg.ACSURL, cfg.ACSJobName)
	}

	// 3. Build HTTP transport (carrying the external-trigger config).
	httpServer := httpapi.New(svc, trig, cfg.SelfURL)

	broadcastPool := workers.NewBroadcastPool(workers.PoolConfig{Workers: 16})

	// 5. Attach stream adapter to the live listening socket.
	streamAdapter := streamapi.New(svc, broadcastPool)
	streamAdapter.Mount(httpServer.App)

	// 6. Install signal handlers for interrupt and terminate signals.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("shutting down chat-router")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.App.ShutdownWithContext(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
		streamAdapter.Close()
		broadcastPool.Shutdown()
		if err := st.Close(); err != nil {
			slog.Error("store close error", "error", err)
		}

		slog.Info("shutdown complete")
		os.Exit(0)
	}()

	// 4. Start listening on the configured port.
	slog.Info("starting chat-router", "port", cfg.Port, "data_dir", cfg.DataDir, "trigger_enabled", cfg.ACSJobName != "")
	if err := httpServer.App.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed to start", "error", err)
		broadcastPool.Shutdown()
		_ = st.Close()
		os.Exit(1)
	}
}
