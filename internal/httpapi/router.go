package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"aimeter/internal/archive"
	"aimeter/internal/config"
	"aimeter/internal/meter"
	"aimeter/internal/pricing"
	"aimeter/internal/queue"
	"aimeter/internal/storage"
	"aimeter/internal/utils"
)

// Dependencies aggregates everything the router wires up that the caller
// must shut down.
type Dependencies struct {
	Meter   *meter.Meter
	Pricing *pricing.Table

	KV             storage.KV
	PricingWatcher *pricing.Watcher
	ArchiveQueue   *queue.RecordQueue
	ArchiveWorker  *archive.Worker
	ArchiveDB      *archive.DB
}

// Close releases every owned resource in dependency order.
func (d *Dependencies) Close(ctx context.Context) {
	if d.PricingWatcher != nil {
		d.PricingWatcher.Close()
	}
	if d.ArchiveWorker != nil {
		d.ArchiveWorker.Stop()
	}
	if d.ArchiveQueue != nil {
		d.ArchiveQueue.Close()
	}
	if d.ArchiveDB != nil {
		d.ArchiveDB.Close()
	}
	if closer, ok := d.KV.(interface{ Close() error }); ok {
		closer.Close()
	}
}

// NewRouter creates the HTTP router with all dependencies wired up.
func NewRouter(cfg *config.Config) (*http.ServeMux, *Dependencies, error) {
	logger := utils.NewLogger("router")
	deps := &Dependencies{}

	// KV backend
	switch cfg.Backend {
	case config.BackendMemory:
		deps.KV = storage.NewMemoryKV()
		logger.Info("Using in-memory KV backend")
	default:
		kv, err := storage.NewRedisKV(storage.RedisConfig{
			Address:      cfg.Redis.Address,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		deps.KV = kv
	}

	// Pricing table, optionally file-backed with hot reload
	deps.Pricing = pricing.Default()
	if cfg.Pricing.FilePath != "" {
		if err := deps.Pricing.ReloadFile(cfg.Pricing.FilePath); err != nil {
			deps.Close(context.Background())
			return nil, nil, fmt.Errorf("failed to load pricing file: %w", err)
		}
		if cfg.Pricing.Watch {
			watcher, err := pricing.WatchFile(cfg.Pricing.FilePath, deps.Pricing, utils.NewLogger("pricing"))
			if err != nil {
				deps.Close(context.Background())
				return nil, nil, fmt.Errorf("failed to watch pricing file: %w", err)
			}
			deps.PricingWatcher = watcher
		}
	}

	// Optional archival pipeline
	var archiver meter.Archiver
	if cfg.Archive.Enabled {
		db, err := archive.NewDB(archive.DBConfig{
			URL:             cfg.Archive.DatabaseURL,
			MaxOpenConns:    cfg.Archive.MaxOpenConns,
			MaxIdleConns:    cfg.Archive.MaxIdleConns,
			ConnMaxLifetime: cfg.Archive.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Archive.ConnMaxIdleTime,
		})
		if err != nil {
			deps.Close(context.Background())
			return nil, nil, fmt.Errorf("failed to initialize archive database: %w", err)
		}
		deps.ArchiveDB = db

		if err := db.EnsureSchema(context.Background()); err != nil {
			deps.Close(context.Background())
			return nil, nil, err
		}

		deps.ArchiveQueue = queue.NewRecordQueue(cfg.Archive.QueueSize)
		deps.ArchiveWorker = archive.NewWorker(deps.ArchiveQueue, db, archive.WorkerConfig{
			BatchSize:     cfg.Archive.BatchSize,
			BatchWait:     cfg.Archive.BatchWait,
			MaxRetries:    cfg.Archive.MaxRetries,
			RetryBackoff:  cfg.Archive.RetryBackoff,
			DeadLetterCap: archive.DefaultWorkerConfig().DeadLetterCap,
		})
		deps.ArchiveWorker.Start(context.Background())
		archiver = deps.ArchiveWorker
	}

	deps.Meter = meter.NewMeter(deps.KV, deps.Pricing, archiver)

	mux := http.NewServeMux()
	usage := NewUsageHandler(deps.Meter)
	mux.HandleFunc("/v1/usage", usage.HandleUsage)
	mux.HandleFunc("/v1/usage/summary", usage.HandleSummary)
	mux.HandleFunc("/healthz", healthHandler(deps))

	return mux, deps, nil
}

// healthHandler reports readiness of the KV backend.
func healthHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger, ok := deps.KV.(interface{ Ping(context.Context) error }); ok {
			if err := pinger.Ping(r.Context()); err != nil {
				utils.RespondWithError(w, http.StatusServiceUnavailable, "kv store unreachable")
				return
			}
		}
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

var (
	_ meter.Archiver = (*archive.Worker)(nil)
	_ storage.KV     = (*storage.RedisKV)(nil)
	_ storage.KV     = (*storage.MemoryKV)(nil)
)
