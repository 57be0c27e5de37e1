// Package app wires configuration into the engine, template stores and
// delivery service shared by the quotepdf commands.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lvillar/quotepdf"
	"github.com/lvillar/quotepdf/delivery"
	"github.com/lvillar/quotepdf/internal/config"
	"github.com/lvillar/quotepdf/internal/logger"
	"github.com/lvillar/quotepdf/tplcache"
	"github.com/lvillar/quotepdf/tplstore"
)

// App holds the long-lived process components.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Templates *tplcache.Cache
	Engine    *quotepdf.Engine

	db      *gorm.DB
	closers []func() error
}

// New builds the template chain, cache and engine described by cfg. The
// database is only opened when the sql template backend needs it.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: log}

	store, err := a.templateStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Templates = tplcache.New(store,
		tplcache.WithTTL(cfg.Cache.TTL),
		tplcache.WithSize(cfg.Cache.Size),
		tplcache.WithLogger(log.Named("tplcache")),
	)
	a.Engine = quotepdf.New(
		quotepdf.WithTemplates(a.Templates),
		quotepdf.WithLogger(log),
		quotepdf.WithDefaultLocale(cfg.Render.DefaultLocale),
		quotepdf.WithCompression(cfg.Render.Compress),
		quotepdf.WithBrandMarker(cfg.Render.BrandMarker),
	)
	return a, nil
}

func (a *App) templateStore(ctx context.Context) (tplstore.Store, error) {
	cfg := a.Config
	switch cfg.Templates.Backend {
	case "sql":
		db, err := a.DB(ctx)
		if err != nil {
			return nil, err
		}
		sqlStore := tplstore.NewSQLStore(db)
		if err := sqlStore.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrating template table: %w", err)
		}
		return tplstore.Chain{sqlStore, tplstore.Builtin{}}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)
		return tplstore.Chain{tplstore.NewRedisStore(client, cfg.Redis.Prefix), tplstore.Builtin{}}, nil
	default:
		if cfg.Templates.Dir == "" {
			return tplstore.Builtin{}, nil
		}
		return tplstore.Chain{tplstore.NewDirStore(cfg.Templates.Dir), tplstore.Builtin{}}, nil
	}
}

// DB opens the configured database on first use.
func (a *App) DB(ctx context.Context) (*gorm.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	var dialector gorm.Dialector
	switch a.Config.Database.Driver {
	case "postgres":
		dialector = postgres.Open(a.Config.Database.DSN)
	default:
		dialector = sqlite.Open(a.Config.Database.DSN)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.NewGormLogger(a.Logger)})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", a.Config.Database.Driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if a.Config.Database.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", a.Config.Database.Driver, err)
	}
	a.db = db
	a.closers = append(a.closers, sqlDB.Close)
	return db, nil
}

// Delivery builds the delivery service on the configured database and
// object store. Delivery tables are migrated on the way.
func (a *App) Delivery(ctx context.Context) (*delivery.Service, error) {
	db, err := a.DB(ctx)
	if err != nil {
		return nil, err
	}
	if err := delivery.Migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("migrating delivery tables: %w", err)
	}
	store, err := a.objectStore(ctx)
	if err != nil {
		return nil, err
	}
	return delivery.NewService(a.Engine, delivery.NewSQLQuoteSource(db),
		delivery.WithObjectStore(store),
		delivery.WithVersionRecorder(delivery.NewSQLVersionRecorder(db)),
		delivery.WithAuditLog(delivery.NewSQLAuditLog(db)),
		delivery.WithLogger(a.Logger.Named("delivery")),
	), nil
}

func (a *App) objectStore(ctx context.Context) (delivery.ObjectStore, error) {
	sc := a.Config.Storage
	if sc.Backend != "s3" {
		return delivery.NewMemoryStore(), nil
	}
	return delivery.NewS3Store(ctx, delivery.S3Config{
		Bucket:       sc.Bucket,
		Region:       sc.Region,
		Endpoint:     sc.Endpoint,
		AccessKey:    sc.AccessKey,
		SecretKey:    sc.SecretKey,
		UsePathStyle: sc.UsePathStyle,
	}, delivery.WithS3Logger(a.Logger.Named("s3")))
}

// Close releases every connection opened by the app.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
