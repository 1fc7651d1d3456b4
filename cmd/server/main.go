package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/stockforumx/reputation-engine/internal/api"
	"github.com/stockforumx/reputation-engine/internal/eval"
	"github.com/stockforumx/reputation-engine/internal/guard"
	"github.com/stockforumx/reputation-engine/internal/jobs"
	"github.com/stockforumx/reputation-engine/internal/market"
	"github.com/stockforumx/reputation-engine/internal/metrics"
	"github.com/stockforumx/reputation-engine/internal/notify"
	"github.com/stockforumx/reputation-engine/internal/snapshot"
	"github.com/stockforumx/reputation-engine/internal/stats"
	"github.com/stockforumx/reputation-engine/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
			opt, err := redis.ParseURL(redisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, 30*time.Second)
			slog.Info("Redis cache enabled")
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Realtime hub ---
	hub := notify.NewHub()
	go hub.Run()

	// --- Core wiring: engine, snapshot, price walk, manipulation scan ---
	dispatcher := notify.NewDispatcher(st, hub)
	engine := eval.NewEngine(st, stats.NewUpdater(st), dispatcher)
	snapshotter := snapshot.NewSnapshotter(st)
	walker := market.NewWalker(st, dispatcher)
	scanner := guard.NewScanner(st)

	scheduler := jobs.NewScheduler()
	for _, reg := range []struct {
		name string
		spec string
		job  jobs.Runner
	}{
		{"evaluation", jobs.SpecEvaluation, engine},
		{"snapshot", jobs.SpecSnapshot, snapshotter},
		{"price_walk", jobs.SpecPriceWalk, walker},
		{"manipulation_scan", jobs.SpecManipulationScan, scanner},
	} {
		if err := scheduler.Add(reg.name, reg.spec, reg.job); err != nil {
			slog.Error("scheduler setup failed", "err", err)
			os.Exit(1)
		}
	}
	scheduler.Start()

	// --- Read API ---
	apiSvc := api.NewService(st)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"reputation-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time outcome events.
		r.Get("/ws", hub.HandleWS)

		// Read-only reputation surface.
		r.Get("/users/{userID}/reputation", apiSvc.GetUserReputation)
		r.Get("/leaderboard", apiSvc.GetLeaderboard)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("reputation-engine listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down reputation-engine...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("reputation-engine stopped")
}
