package container

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do"
	"github.com/serroba/items-api/internal/health"
	"github.com/serroba/items-api/internal/item"
	"github.com/serroba/items-api/internal/metrics"
	"github.com/serroba/items-api/internal/store"
	"go.uber.org/zap"
)

// Storage is the configured item repository.
type Storage struct {
	Repository item.Repository
	// Checker reports database health. It is nil for the in-memory store.
	Checker health.Checker

	closers []do.Shutdownable
}

// Shutdown releases the database connections.
func (s *Storage) Shutdown() error {
	for _, c := range s.closers {
		if err := c.Shutdown(); err != nil {
			return err
		}
	}

	return nil
}

type migrator interface {
	Migrate(ctx context.Context, logger *zap.Logger) error
}

type database interface {
	item.Repository
	migrator
	health.Checker
	do.Shutdownable
}

// StorePackage provides the item repository selected by Options.Store and the
// item service on top of it. A positive CacheTTL puts a Redis read-through cache
// in front of the repository.
func StorePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Storage, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		storage, err := openStorage(opts, logger)
		if err != nil {
			return nil, err
		}

		if opts.CacheTTL > 0 {
			client, err := do.Invoke[*Redis](i)
			if err != nil {
				_ = storage.Shutdown()

				return nil, err
			}

			cache := store.NewRedisCacheRepository(storage.Repository, client.Client, time.Duration(opts.CacheTTL)*time.Second)
			storage.Repository = cache
			storage.closers = append([]do.Shutdownable{cache}, storage.closers...)
		}

		logger.Info("item store ready",
			zap.String("backend", opts.Store),
			zap.Bool("cache", opts.CacheTTL > 0),
		)

		return storage, nil
	})

	do.Provide(i, func(i *do.Injector) (*item.Service, error) {
		storage := do.MustInvoke[*Storage](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		return item.NewService(storage.Repository, m), nil
	})
}

func openStorage(opts *Options, logger *zap.Logger) (*Storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	var (
		db  database
		err error
	)

	switch opts.Store {
	case StoreMemory:
		return &Storage{Repository: store.NewMemoryStore()}, nil
	case StorePostgres:
		pool, perr := store.NewPostgresPool(ctx, opts.DatabaseURL, logger)
		if perr != nil {
			return nil, perr
		}

		db = store.NewPostgresStore(pool)
	case StoreSQLite:
		db, err = store.OpenSQLite(ctx, opts.SQLitePath)
	case StoreMySQL:
		db, err = store.OpenMySQL(ctx, opts.MySQLDSN)
	default:
		return nil, fmt.Errorf("unknown store %q", opts.Store)
	}

	if err != nil {
		return nil, err
	}

	if opts.AutoMigrate {
		if err = db.Migrate(ctx, logger); err != nil {
			_ = db.Shutdown()

			return nil, err
		}
	}

	return &Storage{
		Repository: db,
		Checker:    db,
		closers:    []do.Shutdownable{db},
	}, nil
}
