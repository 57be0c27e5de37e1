package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/quotepdf"
	"github.com/lvillar/quotepdf/delivery"
	"github.com/lvillar/quotepdf/doctpl"
	"github.com/lvillar/quotepdf/internal/config"
	"github.com/lvillar/quotepdf/tplstore"
)

func testConfig() *config.Config {
	return &config.Config{
		Render:    config.RenderConfig{DefaultLocale: "en-US", Compress: false, BrandMarker: "MGL"},
		Cache:     config.CacheConfig{TTL: time.Minute, Size: 8},
		Templates: config.TemplatesConfig{Backend: "fs"},
		Database:  config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
		Storage:   config.StorageConfig{Backend: "memory"},
	}
}

var bundle = map[string]any{
	"quote":   map[string]any{"quote_number": "Q-1"},
	"charges": []any{map[string]any{"desc": "Freight", "total": 10}},
}

func TestNewFSBackend(t *testing.T) {
	dir := t.TempDir()
	body := `{"name": "Ocean Lite", "sections": [{"type": "static_block", "content": {"text": "OCEAN LITE"}}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ocean.json"), []byte(body), 0o600))

	cfg := testConfig()
	cfg.Templates.Dir = dir
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	doc, err := a.Engine.Generate(context.Background(), quotepdf.Request{TemplateID: "ocean", Data: bundle})
	require.NoError(t, err)
	assert.Equal(t, "ocean", doc.TemplateID)
	assert.Contains(t, string(doc.Bytes), "(OCEAN LITE) Tj")

	// built-ins stay reachable behind the directory
	doc, err = a.Engine.Generate(context.Background(), quotepdf.Request{TemplateID: doctpl.BuiltinMGL, Data: bundle})
	require.NoError(t, err)
	assert.Equal(t, doctpl.BuiltinMGL, doc.TemplateID)
}

func TestNewSQLBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Templates.Backend = "sql"
	ctx := context.Background()

	a, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	db, err := a.DB(ctx)
	require.NoError(t, err)
	tpl, err := doctpl.Parse([]byte(`{"id": "db-only", "name": "From DB", "sections": [{"type": "footer", "content": {"text": "stored in sql"}}]}`))
	require.NoError(t, err)
	require.NoError(t, tplstore.NewSQLStore(db).Save(ctx, tpl))

	doc, err := a.Engine.Generate(ctx, quotepdf.Request{TemplateID: "db-only", Data: bundle})
	require.NoError(t, err)
	assert.Equal(t, "db-only", doc.TemplateID)
	assert.Contains(t, string(doc.Bytes), "(stored in sql) Tj")
}

func TestNewRedisBackendIsLazy(t *testing.T) {
	cfg := testConfig()
	cfg.Templates.Backend = "redis"
	cfg.Redis = config.RedisConfig{Addr: "127.0.0.1:1", Prefix: tplstore.DefaultRedisPrefix}

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, a.Engine)
	assert.NoError(t, a.Close())
}

func TestDelivery(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	svc, err := a.Delivery(ctx)
	require.NoError(t, err)

	db, err := a.DB(ctx)
	require.NoError(t, err)
	require.NoError(t, db.Create(&delivery.ChargeSide{ID: "s", Code: "SELL"}).Error)
	require.NoError(t, db.Create(&delivery.Quote{ID: "q1", QuoteNumber: "Q-1", Currency: "EUR"}).Error)
	require.NoError(t, db.Create(&delivery.QuoteCharge{ID: "c1", QuoteID: "q1", ChargeSideID: "s", Description: "Freight", Amount: 10}).Error)

	out, err := svc.GenerateToStorage(ctx, delivery.Request{QuoteID: "q1"})
	require.NoError(t, err)
	assert.Contains(t, out.Path, "q1/latest_")
	assert.Equal(t, "quote_Q-1.pdf", out.Filename)
}

func TestDeliveryS3NeedsCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.Storage = config.StorageConfig{Backend: "s3", Bucket: "quotes"}
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.Delivery(context.Background())
	assert.ErrorContains(t, err, "access key is required")
}
