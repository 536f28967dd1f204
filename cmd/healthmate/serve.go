package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arovik/healthmate/internal/openai"
	"github.com/arovik/healthmate/internal/server"
	"github.com/arovik/healthmate/internal/tools"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveAddr  string
	serveTools bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant over HTTP",
	Long: `Serve the health assistant over HTTP.

Endpoints:
  POST /chat       {"message": "...", "session_id": "..."}  → assistant reply
  POST /symptoms   {"symptom": "...", "session_id": "..."}  → log a symptom
  GET  /symptoms?session_id=...                             → symptom log
  GET  /healthz                                             → liveness

Each client gets an isolated session; the server issues a session_id on the
first request and expects it back on subsequent ones.`,
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveTools, "tools", false, "Enable tool calling for web chats")
}

func runServe() {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	client := openai.NewClient(openai.Config{
		BaseURL: cfg.LLM.Endpoint,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})

	var registry *tools.Registry
	if serveTools {
		registry = tools.NewRegistry()
		tools.RegisterHealthTools(registry)
	}

	srv := server.New(cfg, client, registry, logger)

	fmt.Println()
	fmt.Println("🌐 Healthmate web server starting...")
	fmt.Printf("📱 Listening on %s\n", cfg.Server.Addr)
	fmt.Println("💡 Press CTRL+C to stop the server")
	fmt.Println()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	case <-stop:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}
}
