package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/domain/scheduling"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/docstore"
	"github.com/clinic/clinic/internal/platform/keylock"
)

// storage bundles the repositories of the selected backend.
type storage struct {
	doctors      doctor.Repository
	appointments scheduling.AppointmentRepository
	health       echo.HandlerFunc
	close        func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*storage, error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("connected to database")
		return &storage{
			doctors:      doctor.NewRepoPG(pool),
			appointments: scheduling.NewRepoPG(pool),
			health:       db.PoolHealthHandler(pool),
			close:        pool.Close,
		}, nil

	case config.BackendMongo:
		client, database, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		doctors := doctor.NewRepoMongo(database)
		appointments := scheduling.NewRepoMongo(database)
		if err := docstore.EnsureIndexes(ctx, doctors, appointments); err != nil {
			client.Disconnect(context.Background())
			return nil, err
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongo")
		return &storage{
			doctors:      doctors,
			appointments: appointments,
			health:       docstore.HealthHandler(docstore.ClientPinger{Client: client}),
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					logger.Error().Err(err).Msg("mongo disconnect failed")
				}
			},
		}, nil

	case config.BackendMemory:
		logger.Warn().Msg("using in-memory storage")
		return &storage{
			doctors:      doctor.NewMemoryRepo(),
			appointments: scheduling.NewMemoryRepo(),
			health: func(c echo.Context) error {
				return c.JSON(http.StatusOK, map[string]string{"status": "healthy", "backend": "memory"})
			},
			close: func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

func openLocker(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (keylock.Locker, func(), error) {
	if cfg.LockBackend == config.LockRedis {
		r, err := keylock.NewRedisFromURL(ctx, cfg.RedisURL, cfg.LockTTL, logger)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { r.Close() }, nil
	}
	return keylock.NewSharded(0), func() {}, nil
}
