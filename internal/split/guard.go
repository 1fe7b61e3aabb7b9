package split

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/vouchersplit/backend/internal/errs"
)

const (
	guardPending = "pending"
	guardUnknown = "unknown"
)

// Guard stops a voucher from being split twice. A submission holds the
// voucher while in flight; an ambiguous outcome keeps it held until a balance
// check releases it.
type Guard interface {
	Acquire(ctx context.Context, serial string) error
	Release(ctx context.Context, serial string) error
	MarkUnknown(ctx context.Context, serial string) error
}

// RedisGuard keeps markers in redis so every API instance sees them.
type RedisGuard struct {
	redis      *redis.Client
	pendingTTL time.Duration
	unknownTTL time.Duration
}

func NewRedisGuard(client *redis.Client, pendingTTL, unknownTTL time.Duration) *RedisGuard {
	return &RedisGuard{redis: client, pendingTTL: pendingTTL, unknownTTL: unknownTTL}
}

func guardKey(serial string) string {
	return fmt.Sprintf("split:guard:%s", serial)
}

func (g *RedisGuard) Acquire(ctx context.Context, serial string) error {
	ok, err := g.redis.SetNX(ctx, guardKey(serial), guardPending, g.pendingTTL).Result()
	if err != nil {
		return errs.Wrap(err, "acquire split guard")
	}
	if ok {
		return nil
	}

	state, err := g.redis.Get(ctx, guardKey(serial)).Result()
	if err != nil && err != redis.Nil {
		return errs.Wrap(err, "read split guard")
	}
	return guardError(serial, state)
}

func (g *RedisGuard) Release(ctx context.Context, serial string) error {
	return errs.Wrap(g.redis.Del(ctx, guardKey(serial)).Err(), "release split guard")
}

func (g *RedisGuard) MarkUnknown(ctx context.Context, serial string) error {
	return errs.Wrap(g.redis.Set(ctx, guardKey(serial), guardUnknown, g.unknownTTL).Err(), "mark split unknown")
}

func guardError(serial, state string) error {
	if state == guardUnknown {
		return errs.Mark(errs.Newf("voucher %s", serial), errs.ErrStatusUnknown)
	}
	return errs.Mark(errs.Newf("voucher %s", serial), errs.ErrSubmissionActive)
}

// MemoryGuard is the single-process Guard used when redis is unavailable and
// by the CLI.
type MemoryGuard struct {
	mu         sync.Mutex
	entries    map[string]guardEntry
	pendingTTL time.Duration
	unknownTTL time.Duration
	now        func() time.Time
}

type guardEntry struct {
	state   string
	expires time.Time
}

func NewMemoryGuard(pendingTTL, unknownTTL time.Duration) *MemoryGuard {
	return &MemoryGuard{
		entries:    make(map[string]guardEntry),
		pendingTTL: pendingTTL,
		unknownTTL: unknownTTL,
		now:        time.Now,
	}
}

// Acquire also drops every expired marker, so the map only holds live ones.
func (g *MemoryGuard) Acquire(_ context.Context, serial string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, e := range g.entries {
		if !now.Before(e.expires) {
			delete(g.entries, k)
		}
	}

	if e, ok := g.entries[serial]; ok {
		return guardError(serial, e.state)
	}
	g.entries[serial] = guardEntry{state: guardPending, expires: now.Add(g.pendingTTL)}
	return nil
}

func (g *MemoryGuard) Release(_ context.Context, serial string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entries, serial)
	return nil
}

func (g *MemoryGuard) MarkUnknown(_ context.Context, serial string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries[serial] = guardEntry{state: guardUnknown, expires: g.now().Add(g.unknownTTL)}
	return nil
}
