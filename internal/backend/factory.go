package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"budgetledger/internal/amqp"
	"budgetledger/internal/cache"
	"budgetledger/internal/config"
	"budgetledger/internal/ledger"
	"budgetledger/internal/services"
	"budgetledger/internal/sheets"
	gsheet "budgetledger/internal/sheets/google"
	sheetsmem "budgetledger/internal/sheets/memory"
	"budgetledger/internal/storage"
	"budgetledger/internal/storage/memory"
)

const (
	lruEntries      = 512
	cleanupInterval = 10 * time.Minute
)

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

func (f *Factory) CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		if err := repo.Ping(ctx); err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("ping SQLite: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
	default:
		store := memory.New()
		f.logger.Warn("Initialized memory backend; data is lost on restart")
		return &BackendResult{Store: store, Cleanup: store.Close}, nil
	}
}

// Caches holds the chart and summary caches and the function stopping them.
type Caches struct {
	Chart   cache.Cache[ledger.ChartData]
	Summary cache.Cache[ledger.Summary]
	Close   func() error
}

// CreateCaches returns Redis caches when REDIS_ADDR is set, otherwise
// in-process LRU caches swept periodically. A zero TTL disables caching.
func (f *Factory) CreateCaches(ctx context.Context, appCfg *config.Config) Caches {
	if appCfg.CacheTTL == 0 {
		f.logger.Info("Caching disabled")
		return Caches{Close: func() error { return nil }}
	}

	if addr := strings.TrimSpace(appCfg.RedisAddr); addr != "" {
		client := cache.NewRedisClient(strings.Split(addr, ","), appCfg.RedisPassword)
		if err := client.Ping(ctx).Err(); err != nil {
			f.logger.Warn("Redis unreachable, cache reads will miss until it recovers", "addr", addr, "error", err)
		} else {
			f.logger.Info("Initialized Redis cache", "addr", addr, "ttl", appCfg.CacheTTL)
		}
		return Caches{
			Chart:   cache.NewRedisCache[ledger.ChartData](client, "budgetledger:chart", appCfg.CacheTTL),
			Summary: cache.NewRedisCache[ledger.Summary](client, "budgetledger:summary", appCfg.CacheTTL),
			Close:   client.Close,
		}
	}

	chart := cache.NewLRUCache[ledger.ChartData](lruEntries, appCfg.CacheTTL)
	summary := cache.NewLRUCache[ledger.Summary](lruEntries, appCfg.CacheTTL)
	mgr := cache.NewManager()
	mgr.Register(chart)
	mgr.Register(summary)
	mgr.StartCleanup(cleanupInterval)
	f.logger.Info("Initialized in-memory cache", "ttl", appCfg.CacheTTL, "max_entries", lruEntries)

	return Caches{
		Chart:   chart,
		Summary: summary,
		Close: func() error {
			mgr.Stop()
			return nil
		},
	}
}

// CreateAMQPClient connects to the broker, or returns nil when AMQP_URL is
// empty or the broker is unreachable at startup.
func (f *Factory) CreateAMQPClient(appCfg *config.Config) *amqp.Client {
	if appCfg.AMQPURL == "" {
		f.logger.Info("AMQP not configured, ledger events disabled")
		return nil
	}
	client, err := amqp.NewClient(appCfg.AMQPURL, appCfg.AMQPExchange, appCfg.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client", "exchange", appCfg.AMQPExchange, "queue", appCfg.AMQPQueue)
	return client
}

// Publisher adapts an optional AMQP client to services.EventPublisher so
// that a missing client yields a nil interface.
func Publisher(client *amqp.Client) services.EventPublisher {
	if client == nil {
		return nil
	}
	return client
}

// CreateExporter returns the Google Sheets exporter when a spreadsheet is
// configured and the in-memory exporter otherwise.
func (f *Factory) CreateExporter(ctx context.Context, appCfg *config.Config) (sheets.NotificationExporter, error) {
	if !appCfg.ExportEnabled() {
		f.logger.Warn("GOOGLE_SPREADSHEET_ID not set, exporting to memory only")
		return sheetsmem.New(), nil
	}
	exp, err := gsheet.NewClient(ctx, gsheet.Config{
		SpreadsheetID:   appCfg.GoogleSpreadsheetID,
		SheetName:       appCfg.GoogleSheetName,
		CredentialsJSON: appCfg.GoogleServiceAccountJSON,
		CredentialsFile: appCfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, errors.Join(errors.New("initialize Google Sheets exporter"), err)
	}
	return exp, nil
}
