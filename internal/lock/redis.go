package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Klingon-tech/klingnet-assets/internal/log"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces lock keys in Redis.
const DefaultKeyPrefix = "klingnet-assets:softlock:"

// RedisLocker keeps soft locks in Redis so that several processes sharing a
// vault see each other's reservations. Each state ref is one redsync mutex
// whose value is the holding lock ID; locks expire after a fixed time so
// that a crashed process cannot pin states forever.
type RedisLocker struct {
	client *redis.Client
	rs     *redsync.Redsync
	expiry time.Duration
	prefix string

	mu   sync.Mutex
	held map[uuid.UUID]map[types.StateRef]*redsync.Mutex
}

// NewRedisLocker creates a locker on an existing go-redis client.
func NewRedisLocker(client *redis.Client, expiry time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: expiry,
		prefix: DefaultKeyPrefix,
		held:   make(map[uuid.UUID]map[types.StateRef]*redsync.Mutex),
	}
}

func (r *RedisLocker) key(ref types.StateRef) string {
	return r.prefix + ref.String()
}

// mutex returns the redsync mutex for ref. The stored value is the lock ID:
// WithGenValueFunc sets what lock writes and WithValue what unlock compares.
func (r *RedisLocker) mutex(ref types.StateRef, lockID uuid.UUID) *redsync.Mutex {
	value := lockID.String()
	return r.rs.NewMutex(
		r.key(ref),
		redsync.WithExpiry(r.expiry),
		redsync.WithTries(1),
		redsync.WithGenValueFunc(func() (string, error) { return value, nil }),
		redsync.WithValue(value),
	)
}

// isContention reports whether err means the mutex is held by someone else.
func isContention(err error) bool {
	var taken *redsync.ErrTaken
	if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "lock already taken") ||
		strings.Contains(msg, "failed to acquire lock")
}

// Reserve implements Locker.
func (r *RedisLocker) Reserve(ctx context.Context, lockID uuid.UUID, refs []types.StateRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mine := r.held[lockID]
	var acquired []*redsync.Mutex
	rollback := func() {
		for _, m := range acquired {
			if _, err := m.UnlockContext(ctx); err != nil {
				log.Lock.Warn().Err(err).Str("key", m.Name()).Msg("Rollback unlock failed")
			}
		}
	}

	newly := make(map[types.StateRef]*redsync.Mutex, len(refs))
	for _, ref := range refs {
		if _, ok := mine[ref]; ok {
			continue
		}
		m := r.mutex(ref, lockID)
		if err := m.LockContext(ctx); err != nil {
			if !isContention(err) {
				rollback()
				return fmt.Errorf("reserve %s: %w", ref, err)
			}
			// Another process using the same lock ID may already hold it.
			holder, ok, herr := r.Holder(ctx, ref)
			if herr != nil || !ok || holder != lockID {
				rollback()
				return fmt.Errorf("%w: %s", ErrStatesNotAvailable, ref)
			}
		} else {
			acquired = append(acquired, m)
		}
		newly[ref] = m
	}

	if mine == nil {
		mine = make(map[types.StateRef]*redsync.Mutex, len(newly))
		r.held[lockID] = mine
	}
	for ref, m := range newly {
		mine[ref] = m
	}
	log.Lock.Debug().Str("lock_id", lockID.String()).Int("states", len(refs)).Msg("Reserved states in redis")
	return nil
}

// Release implements Locker.
func (r *RedisLocker) Release(ctx context.Context, lockID uuid.UUID, refs ...types.StateRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mine := r.held[lockID]
	if len(refs) == 0 {
		for ref := range mine {
			refs = append(refs, ref)
		}
	}
	for _, ref := range refs {
		m, ok := mine[ref]
		if !ok {
			// Held by lockID in another process; the value check in the
			// unlock script still protects other holders.
			m = r.mutex(ref, lockID)
		}
		if _, err := m.UnlockContext(ctx); err != nil && !errors.Is(err, redsync.ErrLockAlreadyExpired) {
			log.Lock.Debug().Err(err).Str("ref", ref.String()).Msg("Unlock skipped")
		}
		delete(mine, ref)
	}
	if len(mine) == 0 {
		delete(r.held, lockID)
	}
	return nil
}

// Holder implements Locker.
func (r *RedisLocker) Holder(ctx context.Context, ref types.StateRef) (uuid.UUID, bool, error) {
	val, err := r.client.Get(ctx, r.key(ref)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("redis get %s: %w", ref, err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("lock value for %s is not a lock ID: %w", ref, err)
	}
	return id, true, nil
}

// Close closes the underlying Redis client.
func (r *RedisLocker) Close() error {
	return r.client.Close()
}
