package jsonfile

import (
	"context"
	"sync"

	"ownerauth/internal/domain/repository"

	"github.com/pkg/errors"
)

// WriteQueue runs jobs one at a time in strict arrival order.
// The running job hands the slot directly to the oldest waiter, so no later
// arrival can overtake an earlier one.
type WriteQueue struct {
	mu      sync.Mutex
	busy    bool
	closed  bool
	waiters []chan struct{}
}

// NewWriteQueue returns an idle queue.
func NewWriteQueue() *WriteQueue {
	return &WriteQueue{}
}

// Do waits for every earlier job, then runs fn. Jobs are not cancellable once admitted.
func (q *WriteQueue) Do(fn func() error) error {
	turn, err := q.enqueue()
	if err != nil {
		return err
	}
	if turn != nil {
		<-turn
	}
	defer q.release()

	return fn()
}

// Pending reports how many jobs are waiting behind the running one.
func (q *WriteQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.waiters)
}

// Close rejects new jobs and waits until every admitted job has finished.
// If ctx expires first the remaining jobs still run, but Close returns early.
func (q *WriteQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()

		return nil
	}
	q.closed = true

	if !q.busy {
		q.mu.Unlock()

		return nil
	}

	turn := make(chan struct{})
	q.waiters = append(q.waiters, turn)
	q.mu.Unlock()

	select {
	case <-turn:
		q.release()

		return nil
	case <-ctx.Done():
		go func() {
			<-turn
			q.release()
		}()

		return errors.Wrap(ctx.Err(), "write queue did not drain")
	}
}

// enqueue takes the slot immediately when idle, otherwise returns a channel closed on our turn.
func (q *WriteQueue) enqueue() (chan struct{}, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, repository.ErrStoreClosed
	}

	if !q.busy {
		q.busy = true

		return nil, nil
	}

	turn := make(chan struct{})
	q.waiters = append(q.waiters, turn)

	return turn, nil
}

func (q *WriteQueue) release() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.waiters) == 0 {
		q.busy = false

		return
	}

	next := q.waiters[0]
	q.waiters[0] = nil
	q.waiters = q.waiters[1:]
	close(next)
}
