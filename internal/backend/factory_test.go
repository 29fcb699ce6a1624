package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetledger/internal/config"
	"budgetledger/internal/core"
	"budgetledger/internal/ledger"
	sheetsmem "budgetledger/internal/sheets/memory"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"})
	if err != nil || cfg.Type != SQLiteBackend {
		t.Fatalf("FromAppConfig() = %+v, %v", cfg, err)
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestCreateBackendSQLite(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)
	res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Cleanup()

	period, _ := core.NewPeriod(2025, time.March)
	if _, err := res.Store.IncrementIncome(ctx, 1, period, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("IncrementIncome() = %v", err)
	}
}

func TestCreateBackendMemory(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatal(err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateCachesLRU(t *testing.T) {
	ctx := context.Background()
	caches := NewFactory(nil).CreateCaches(ctx, &config.Config{CacheTTL: time.Minute})
	defer caches.Close()

	caches.Chart.Set(ctx, "1:chart", ledger.ChartData{Months: ledger.MonthLabels})
	if _, ok := caches.Chart.Get(ctx, "1:chart"); !ok {
		t.Fatal("expected cache hit")
	}
}

func TestCreateCachesDisabled(t *testing.T) {
	caches := NewFactory(nil).CreateCaches(context.Background(), &config.Config{})
	if caches.Chart != nil || caches.Summary != nil {
		t.Fatal("zero TTL should disable caching")
	}
	if err := caches.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateExporterFallsBackToMemory(t *testing.T) {
	exp, err := NewFactory(nil).CreateExporter(context.Background(), &config.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := exp.(*sheetsmem.Exporter); !ok {
		t.Fatalf("exporter = %T, want memory exporter", exp)
	}
}

func TestPublisherNilClient(t *testing.T) {
	if Publisher(nil) != nil {
		t.Fatal("nil client must yield a nil publisher")
	}
}
