package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/iudanet/tokenauth/internal/config"
	"github.com/iudanet/tokenauth/internal/server/handlers"
	"github.com/iudanet/tokenauth/internal/server/storage"
	"github.com/iudanet/tokenauth/internal/server/storage/memory"
	"github.com/iudanet/tokenauth/internal/server/storage/postgres"
	"github.com/iudanet/tokenauth/internal/server/storage/redis"
	"github.com/iudanet/tokenauth/internal/server/storage/sqlite"
)

// stores хранилища, выбранные конфигурацией
type stores struct {
	users    storage.UserStorage
	sessions storage.SessionStorage
	pingers  []handlers.Pinger
	closers  []io.Closer
}

// openStores открывает хранилище пользователей и, если задан SESSION_STORE,
// отдельное хранилище сессий
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	st := &stores{}

	switch cfg.StorageDriver {
	case config.DriverSQLite:
		db, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		st.add(db, db)
		logger.InfoContext(ctx, "sqlite storage opened", slog.String("path", cfg.SQLitePath))
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURL, postgres.Options{})
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres storage: %w", err)
		}
		st.add(db, db)
		logger.InfoContext(ctx, "postgres storage opened")
	case config.DriverMemory:
		db := memory.New()
		st.add(db, db)
		logger.WarnContext(ctx, "memory storage: sessions are lost on restart")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	if cfg.SessionStore == config.SessionStoreRedis {
		rs, err := redis.Connect(ctx, cfg.RedisURL, redis.Options{
			Retention:     2 * cfg.SweepInterval,
			RetryAttempts: 5,
			RetryInterval: time.Second,
		})
		if err != nil {
			st.Close(logger)
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		st.sessions = rs
		st.pingers = append(st.pingers, rs)
		st.closers = append(st.closers, rs)
		logger.InfoContext(ctx, "redis session store connected")
	}

	return st, nil
}

// add регистрирует backend, хранящий и пользователей, и сессии
func (s *stores) add(users storage.UserStorage, backend interface {
	storage.SessionStorage
	io.Closer
}) {
	s.users = users
	s.sessions = backend
	s.pingers = append(s.pingers, backend)
	s.closers = append(s.closers, backend)
}

// Close закрывает хранилища в обратном порядке
func (s *stores) Close(logger *slog.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}
}
