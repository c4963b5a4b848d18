package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"taskfin/internal/amqp"
	"taskfin/internal/storage"
	"taskfin/internal/storage/memory"
	"taskfin/internal/store"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend opens the configured storage, seeds the configured user
// and joins the storage with a change notifier.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		repos   store.Repositories
		ping    func(context.Context) error
		closers []CleanupFunc
	)

	switch config.Type {
	case SQLiteBackend:
		sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		repos, ping = sqliteRepo, sqliteRepo.Ping
		closers = append(closers, sqliteRepo.Close)
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		repos = memory.New()
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	if config.UserID != "" {
		if err := storage.Seed(ctx, repos, config.UserID, config.DataDirectory); err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("seed backend: %w", err)
		}
	}

	notifier, remote := f.notifier(config)
	closers = append(closers, notifier.Close)

	return &BackendResult{
		Collaborator: Compose(repos, notifier),
		Ping:         ping,
		Cleanup:      func() error { return closeAll(closers) },
		Remote:       remote,
	}, nil
}

// notifier connects to the broker when one is configured. A broker that
// cannot be reached degrades to the in-process bus.
func (f *DefaultFactory) notifier(config Config) (Notifier, bool) {
	if config.AMQPURL == "" {
		return NewLocalBus(), false
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing with local notifications", "error", err)
		return NewLocalBus(), false
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return amqp.NewNotifier(client), true
}

// closeAll runs closers in reverse order and joins their errors.
func closeAll(closers []CleanupFunc) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
