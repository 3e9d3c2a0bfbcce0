package storage

import (
	"context"
	"fmt"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/config"
)

func NewFileRepositories(dataDir string, logger internal.Logger) (*Repositories, error) {
	s, err := NewFileStorage(dataDir, logger)
	if err != nil {
		return nil, err
	}
	return newRepositories(s, s.Close), nil
}

func NewPostgresRepositories(ctx context.Context, dsn string, logger internal.Logger) (*Repositories, error) {
	s, err := NewPostgresStorage(ctx, dsn, logger)
	if err != nil {
		return nil, err
	}
	return newRepositories(s, s.Close), nil
}

func NewMongoRepositories(ctx context.Context, uri, database string, logger internal.Logger) (*Repositories, error) {
	s, err := NewMongoStorage(ctx, uri, database, logger)
	if err != nil {
		return nil, err
	}
	return newRepositories(s, s.Close), nil
}

// Open picks the backend named by STORAGE_BACKEND.
func Open(ctx context.Context, cfg *config.Config, logger internal.Logger) (*Repositories, error) {
	logger.Infow("opening storage", "backend", cfg.StorageBackend)
	switch cfg.StorageBackend {
	case "file":
		return NewFileRepositories(cfg.DataDir, logger)
	case "postgres":
		return NewPostgresRepositories(ctx, cfg.PostgresDSN, logger)
	case "mongo":
		return NewMongoRepositories(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	}
	return nil, fmt.Errorf("storage: unknown backend %q", cfg.StorageBackend)
}
