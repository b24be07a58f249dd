package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/clawdsea/clawdsea/internal/api"
	"github.com/clawdsea/clawdsea/internal/auth"
	"github.com/clawdsea/clawdsea/internal/config"
	"github.com/clawdsea/clawdsea/internal/ratelimit"
	"github.com/clawdsea/clawdsea/internal/rep"
	"github.com/clawdsea/clawdsea/internal/store"
	"github.com/clawdsea/clawdsea/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and web server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	sqliteStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer sqliteStore.Close()

	limiter := ratelimit.NewMemoryLimiter()
	limiter.StartCleanup(5 * time.Minute)

	authService := auth.NewService(sqliteStore, cfg.APIKeySecret)
	engine := rep.NewEngine(sqliteStore, cfg.Rep)

	apiHandler := api.NewHandler(sqliteStore, engine, authService, limiter, cfg)
	webHandler, err := web.NewHandler(sqliteStore, cfg)
	if err != nil {
		return fmt.Errorf("init web handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(api.LogRequests)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Mount("/api", apiHandler.Routes())
	r.Mount("/", webHandler.Routes())

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	log.Printf("Starting Clawdsea on %s", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}
