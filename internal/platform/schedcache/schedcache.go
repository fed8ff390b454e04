package schedcache

import (
	"context"
	"sync"
	"time"
)

// Notifier records the time of the most recent state change that should
// trigger a scheduler run. Writes are last-write-wins; readers only need
// second-level granularity to decide whether to recompute the schedule.
type Notifier interface {
	SetLastChange(ctx context.Context, t time.Time) error
	LastChange(ctx context.Context) (time.Time, bool, error)
}

type memoryNotifier struct {
	mu   sync.Mutex
	t    time.Time
	seen bool
}

// NewMemoryNotifier returns a process-local notifier, used in tests and in
// single-process deployments without redis.
func NewMemoryNotifier() Notifier {
	return &memoryNotifier{}
}

func (n *memoryNotifier) SetLastChange(_ context.Context, t time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.t = t
	n.seen = true
	return nil
}

func (n *memoryNotifier) LastChange(_ context.Context) (time.Time, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.t, n.seen, nil
}
