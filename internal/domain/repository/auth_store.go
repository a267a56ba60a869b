// Package repository defines persistence contracts consumed by the use cases.
package repository

import (
	"context"

	"ownerauth/internal/domain/entity"

	"github.com/pkg/errors"
)

// Sentinel errors for the record store.
var (
	// ErrNoChanges may be returned by a mutation to finish successfully without writing.
	ErrNoChanges = errors.New("no changes to persist")
	// ErrStoreClosed is returned for mutations submitted after the store was closed.
	ErrStoreClosed = errors.New("record store is closed")
)

// MutateFunc computes the next full record from a fresh, pruned snapshot.
// Returning a non-nil error aborts the write and is passed back to the caller.
type MutateFunc func(record *entity.AuthStoreRecord) error

// AuthStore persists the single AuthStoreRecord document.
// Reads are not serialized; every mutation runs in strict FIFO order, one at a time,
// and replaces the whole record.
type AuthStore interface {
	// Snapshot returns a pruned copy of the current record. Callers own the copy.
	Snapshot(ctx context.Context) (*entity.AuthStoreRecord, error)

	// Mutate queues fn behind all earlier mutations, hands it a fresh pruned snapshot,
	// and writes the resulting record when fn returns nil.
	Mutate(ctx context.Context, fn MutateFunc) error
}
