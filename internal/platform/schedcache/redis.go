package schedcache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/codacy-badger/observation-portal/internal/platform/logger"
)

// Key shared with the external scheduler trigger. Stored as RFC3339Nano,
// no expiry.
const lastChangeKey = "observation_portal_last_change_time"

type redisNotifier struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewRedisNotifier(log *logger.Logger) (Notifier, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisNotifier{
		log: log.With("service", "SchedCache"),
		rdb: rdb,
	}, nil
}

func (n *redisNotifier) SetLastChange(ctx context.Context, t time.Time) error {
	if n == nil || n.rdb == nil {
		return fmt.Errorf("sched cache not initialized")
	}
	return n.rdb.Set(ctx, lastChangeKey, t.UTC().Format(time.RFC3339Nano), 0).Err()
}

func (n *redisNotifier) LastChange(ctx context.Context) (time.Time, bool, error) {
	if n == nil || n.rdb == nil {
		return time.Time{}, false, fmt.Errorf("sched cache not initialized")
	}
	raw, err := n.rdb.Get(ctx, lastChangeKey).Result()
	if errors.Is(err, goredis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		n.log.Warn("unparseable last change time in cache", "value", raw, "error", err)
		return time.Time{}, false, nil
	}
	return t, true, nil
}
