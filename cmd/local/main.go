package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gigfair-backend/cmd"
	"gigfair-backend/internal/api"
	"gigfair-backend/internal/database"
	"gigfair-backend/internal/llm"
	"gigfair-backend/internal/messaging"
	"gigfair-backend/internal/storage"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Config struct {
	Root      string `env:"ROOT" envDefault:"./gigfair"`
	Port      int    `env:"PORT" envDefault:"3001"`
	JWTSecret string `env:"JWT_SECRET" envDefault:"local-dev-secret"`

	OpenAIAPIKey  string        `env:"OPENAI_API_KEY" envDefault:""`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL" envDefault:""`
	OpenAIModel   string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAITemp    float64       `env:"OPENAI_TEMPERATURE" envDefault:"0.2"`
	LLMTimeout    time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
}

func createDatabase(root string) *gorm.DB {
	path := filepath.Join(root, "db", "gigfair.db")
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.GetMigrator(db).Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func createServer(service *api.BackendService, objects *storage.LocalObjectStore, port int) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	service.AddRoutes(r)

	// Evidence objects are served straight off disk in local mode.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(objects.Dir()))))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
}

func main() {
	cmd.LoadEnvFile()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	if err := os.MkdirAll(cfg.Root, os.ModePerm); err != nil {
		log.Fatalf("error creating root directory: %v", err)
	}

	slog.Info("starting backend", "root", cfg.Root, "port", cfg.Port)

	db := createDatabase(cfg.Root)

	objects, err := storage.NewLocalObjectStore(
		filepath.Join(cfg.Root, "storage"),
		fmt.Sprintf("http://localhost:%d/uploads", cfg.Port),
	)
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}

	queue := messaging.NewInMemoryQueue()
	defer queue.Close()

	var generator llm.Generator
	if cfg.OpenAIAPIKey != "" {
		generator = llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.OpenAITemp, cfg.LLMTimeout)
	} else {
		slog.Info("no OpenAI API key configured, using rule based fallbacks")
	}

	service := api.NewBackendService(db, queue, objects, generator, api.NewTokenIssuer(cfg.JWTSecret, 168*time.Hour))

	server := createServer(service, objects, cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The anomaly worker runs in process, consuming the same in-memory queue
	// the handlers publish to.
	worker := messaging.NewAnomalyWorker(db, queue)
	go worker.Run(ctx)

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	slog.Info("server started", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	slog.Info("server stopped")
}
