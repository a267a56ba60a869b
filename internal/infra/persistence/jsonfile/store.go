// Package jsonfile persists the auth record as a single JSON document on the local filesystem.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ownerauth/config"
	"ownerauth/internal/domain/entity"
	domainerrors "ownerauth/internal/domain/errors"
	"ownerauth/internal/domain/lifecycle"
	"ownerauth/internal/domain/repository"
	"ownerauth/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	filePerm = 0o600
	dirPerm  = 0o700

	slowWriteThreshold = 250 * time.Millisecond
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
	Clock  service.Clock
}

// New creates the file-backed AuthStore and ties it to the application lifecycle:
// the file is opened on start and every admitted write is drained on stop.
func New(params Params) repository.AuthStore {
	store := NewStore(params.Config.Store.Path, params.Clock, params.Config.Auth.RateLimit.Window, params.Logger)

	params.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return store.Open(ctx)
		},
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
			defer cancel()

			return store.Close(stopCtx)
		},
	})

	return store
}

// Store is the file-backed AuthStore.
type Store struct {
	path          string
	clock         service.Clock
	attemptWindow time.Duration
	logger        *slog.Logger
	queue         *WriteQueue
}

// NewStore builds a store without opening it.
func NewStore(path string, clock service.Clock, attemptWindow time.Duration, logger *slog.Logger) *Store {
	return &Store{
		path:          path,
		clock:         clock,
		attemptWindow: attemptWindow,
		logger:        logger,
		queue:         NewWriteQueue(),
	}
}

// Open prepares the directory and checks that an existing document parses.
func (s *Store) Open(_ context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return errors.Wrapf(err, "failed to create store directory for %s", s.path)
	}

	record, err := s.load()
	if err != nil {
		return err
	}

	s.logger.Info("Auth record store opened",
		slog.String("path", s.path),
		slog.Bool("has_owner", record.Owner != nil),
		slog.Int("sessions", len(record.Sessions)),
	)

	return nil
}

// Close stops accepting mutations and waits for the queued ones to be written.
func (s *Store) Close(ctx context.Context) error {
	s.logger.Info("Closing auth record store", slog.Int("pending_writes", s.queue.Pending()))

	return s.queue.Close(ctx)
}

// Snapshot reads the document outside the queue and returns its pruned projection.
func (s *Store) Snapshot(_ context.Context) (*entity.AuthStoreRecord, error) {
	record, err := s.load()
	if err != nil {
		return nil, err
	}

	return record.Prune(s.clock.Now(), s.attemptWindow), nil
}

// Mutate runs one read-modify-write cycle inside the write queue.
func (s *Store) Mutate(ctx context.Context, fn repository.MutateFunc) error {
	return s.queue.Do(func() error {
		start := time.Now()

		current, err := s.load()
		if err != nil {
			return err
		}

		now := s.clock.Now()
		next := current.Prune(now, s.attemptWindow)

		if err := fn(next); err != nil {
			if errors.Is(err, repository.ErrNoChanges) {
				return nil
			}

			return err
		}

		next.UpdatedAt = now.UnixMilli()
		if err := s.write(next); err != nil {
			return err
		}

		if elapsed := time.Since(start); elapsed > slowWriteThreshold {
			s.logger.WarnContext(ctx, "Slow auth record write", slog.Duration("elapsed", elapsed))
		}

		return nil
	})
}

func (s *Store) load() (*entity.AuthStoreRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entity.NewAuthStoreRecord(), nil
	}
	if err != nil {
		return nil, errors.WithStack(domainerrors.NewStorageError(err, "read auth record"))
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return entity.NewAuthStoreRecord(), nil
	}

	var record entity.AuthStoreRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.WithStack(domainerrors.NewStorageError(
			errors.Wrapf(err, "decode %s", s.path), "decode auth record"))
	}

	return record.Clone(), nil
}

func (s *Store) write(record *entity.AuthStoreRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode auth record")
	}
	data = append(data, '\n')

	if err := writeFileAtomic(s.path, data, filePerm); err != nil {
		return errors.WithStack(domainerrors.NewStorageError(err, "write auth record"))
	}

	return nil
}
