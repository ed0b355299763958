package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiv1 "github.com/at-ishikawa/lingochat/internal/api/v1"
	"github.com/at-ishikawa/lingochat/internal/bootstrap"
	"github.com/at-ishikawa/lingochat/internal/chat"
	"github.com/at-ishikawa/lingochat/internal/config"
	"github.com/at-ishikawa/lingochat/internal/conversation"
	"github.com/at-ishikawa/lingochat/internal/database"
	"github.com/at-ishikawa/lingochat/internal/inference"
	"github.com/at-ishikawa/lingochat/internal/inference/openai"
	"github.com/at-ishikawa/lingochat/internal/insight"
	"github.com/at-ishikawa/lingochat/internal/metrics"
	"github.com/at-ishikawa/lingochat/internal/server"
	"github.com/at-ishikawa/lingochat/schemas"
)

type serverOptions struct {
	migrate bool
}

// newServer wires storage, metrics, the responder and the chat service into an
// http.Server. Cleanup of every opened resource is registered on app.
func newServer(ctx context.Context, cfg *config.Config, app *bootstrap.App, opts serverOptions) (*http.Server, error) {
	repo, err := newRepository(ctx, cfg, app, opts)
	if err != nil {
		return nil, fmt.Errorf("newRepository() > %w", err)
	}

	aggregator, err := newAggregator(cfg.Metrics, app)
	if err != nil {
		return nil, fmt.Errorf("newAggregator() > %w", err)
	}

	var responder inference.Client
	if cfg.OpenAI.APIKey == "" {
		slog.Default().Warn("OPENAI_API_KEY is not set, generated messages will use the fallback reply")
	} else {
		openaiClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, cfg.Responder.MaxRetryAttempts)
		app.AddShutdownHook("openai", func(context.Context) error {
			return openaiClient.Close()
		})
		responder = openaiClient
	}

	service, err := chat.NewService(repo, aggregator, insight.NewGenerator(nil), responder, cfg.Responder)
	if err != nil {
		return nil, fmt.Errorf("chat.NewService() > %w", err)
	}

	path, handler := apiv1.NewChatServiceHandler(server.NewChatHandler(service))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           corsMiddleware(cfg.Server.CORS.AllowedOrigins, h2c.NewHandler(mux, &http2.Server{})),
		ReadHeaderTimeout: 10 * time.Second,
	}
	app.AddShutdownHook("http server", srv.Shutdown)
	return srv, nil
}

func newRepository(ctx context.Context, cfg *config.Config, app *bootstrap.App, opts serverOptions) (conversation.Repository, error) {
	if cfg.Storage.Driver != "mysql" {
		slog.Default().Info("using in-memory storage")
		return conversation.NewMemoryRepository(), nil
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database.Open() > %w", err)
	}
	app.AddShutdownHook("database", func(context.Context) error {
		return db.Close()
	})

	if opts.migrate {
		applied, err := database.Migrate(ctx, db, schemas.Migrations, "migrations")
		if err != nil {
			return nil, fmt.Errorf("database.Migrate() > %w", err)
		}
		slog.Default().Info("database migrated", "applied", applied)
	}
	slog.Default().Info("using mysql storage", "host", cfg.Database.Host, "database", cfg.Database.Database)
	return conversation.NewDBRepository(db), nil
}

// newAggregator seeds the aggregator from config, restores the snapshot when
// one is configured and saves it again on shutdown.
func newAggregator(cfg config.MetricsConfig, app *bootstrap.App) (*metrics.Aggregator, error) {
	aggregator := metrics.NewAggregator(metrics.LearningMetrics{
		AccuracyScore:   cfg.Seed.AccuracyScore,
		ContextAccuracy: cfg.Seed.ContextAccuracy,
		LearningRate:    cfg.Seed.LearningRate,
	})
	if cfg.SnapshotPath == "" {
		return aggregator, nil
	}

	if _, err := aggregator.LoadSnapshot(cfg.SnapshotPath); err != nil {
		return nil, fmt.Errorf("aggregator.LoadSnapshot() > %w", err)
	}
	app.AddShutdownHook("metrics snapshot", func(context.Context) error {
		return aggregator.SaveSnapshot(cfg.SnapshotPath)
	})
	return aggregator, nil
}

func runServer(srv *http.Server) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		slog.Default().Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("srv.ListenAndServe() > %w", err)
		}
		return nil
	}
}

func corsMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	allowAll := slices.Contains(allowedOrigins, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAll || slices.Contains(allowedOrigins, origin)) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
			w.Header().Set("Access-Control-Max-Age", "3600")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
