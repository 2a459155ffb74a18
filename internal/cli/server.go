package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"ochem-lab-service/internal/app"
	"ochem-lab-service/internal/config"
	"ochem-lab-service/internal/infra/memory"
	"ochem-lab-service/internal/infra/postgres"
	infraredis "ochem-lab-service/internal/infra/redis"
	"ochem-lab-service/internal/logger"
	"ochem-lab-service/internal/structure"
	transport "ochem-lab-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the activity server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	var db *bun.DB
	if cfg.Postgres.URL != "" {
		if db, err = openDB(cfg); err != nil {
			return err
		}
		defer db.Close()
		if err := runMigrations(ctx, db, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	catalog, err := loadCatalog(ctx, cfg.Activity.CatalogDir)
	if err != nil {
		return err
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.ActivityLoader = catalog
	if pool != nil {
		loader = postgres.NewActivityLoader(pool)
	}

	activityTTL := config.TTLDuration(cfg.Activity.TTL, 10*time.Minute)
	var activities app.ActivityRepository
	if redisClient != nil {
		activities = infraredis.NewActivityRepository(redisClient, loader, activityTTL, log)
	} else {
		activities = memory.NewActivityRepository(loader, activityTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = infraredis.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	var progress app.ProgressStore
	switch {
	case db != nil:
		progress = postgres.NewProgressStore(db)
	case redisClient != nil:
		progress = infraredis.NewProgressStore(redisClient)
	default:
		progress = memory.NewProgressStore()
	}

	paths := app.NewPathService(catalog.Paths(), progress, log)
	service := app.NewActivityService(sessions, activities, progress,
		app.WithLogger(log),
		app.WithPaths(paths),
		app.WithWriteTimeout(config.TTLDuration(cfg.Progress.Timeout, 2*time.Second)),
	)
	structures := structure.NewClient(cfg.PubChem.BaseURL, config.TTLDuration(cfg.PubChem.Timeout, 5*time.Second), log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", transport.NewWSHandler(service, log).ServeWS)
	transport.NewRESTHandler(activities, paths, structures, log).Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting activity service", "port", finalPort, "activities", len(catalog.Activities()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
