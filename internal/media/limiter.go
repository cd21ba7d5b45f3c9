package media

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// IOLimiter bounds the number of disk reads in flight across all requests.
// A slot covers one ReadAt, never the write to the client that follows it.
type IOLimiter struct {
	sem *semaphore.Weighted
}

func NewIOLimiter(maxConcurrent int) *IOLimiter {
	return &IOLimiter{sem: semaphore.NewWeighted(int64(max(1, maxConcurrent)))}
}

// Acquire waits for a free slot or for ctx to be done.
func (i *IOLimiter) Acquire(ctx context.Context) error {
	return i.sem.Acquire(ctx, 1)
}

func (i *IOLimiter) Release() {
	i.sem.Release(1)
}
