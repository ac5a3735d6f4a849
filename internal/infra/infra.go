package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/config"
	"github.com/Mikbal34/muhasebe-sub003/internal/db"
	"github.com/Mikbal34/muhasebe-sub003/internal/migrations"
	redisclient "github.com/Mikbal34/muhasebe-sub003/internal/redis"
	"github.com/Mikbal34/muhasebe-sub003/internal/storage"
)

// Infra holds the shared connections. Redis is nil when not configured.
type Infra struct {
	PG    *pgxpool.Pool
	Redis *redis.Client
	Files *storage.Local
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Infra, error) {
	if cfg.Postgres.AutoMigrate {
		if err := migrate(cfg.Postgres.DSN, logger); err != nil {
			return nil, err
		}
	}

	pool, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if rdb == nil {
		logger.Warn("redis not configured: rate limiting, refresh revocation and report cache disabled")
	}

	logger.Info("infra ready", zap.Bool("redis", rdb != nil), zap.String("storage", cfg.Storage.Root))
	return &Infra{PG: pool, Redis: rdb, Files: storage.NewLocal(cfg.Storage.Root)}, nil
}

func migrate(dsn string, logger *zap.Logger) error {
	r, err := migrations.NewRunner(dsn)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			logger.Warn("migrations close", zap.Error(err))
		}
	}()
	if err := r.Up(); err != nil {
		return fmt.Errorf("migrations up: %w", err)
	}
	v, dirty, err := r.Version()
	if err != nil {
		return err
	}
	logger.Info("schema up to date", zap.Uint("version", v), zap.Bool("dirty", dirty))
	return nil
}

func (i *Infra) Close() {
	if i == nil {
		return
	}
	if i.PG != nil {
		i.PG.Close()
	}
	redisclient.Close(i.Redis)
}
