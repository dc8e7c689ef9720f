package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker serializes scoring runs per applicant across workers.
type Locker struct {
	rdb      redis.Cmdable
	ttl      time.Duration
	newToken func() string
}

func NewLocker(rdb redis.Cmdable, ttl time.Duration) *Locker {
	return &Locker{rdb: rdb, ttl: ttl, newToken: uuid.NewString}
}

// Lock is a held applicant lock.
type Lock struct {
	rdb   redis.Cmdable
	key   string
	token string
}

func lockKey(tenantID, applicantID string) string {
	return fmt.Sprintf("applicant-scoring:%s:%s", tenantID, applicantID)
}

// Acquire takes the lock or returns ErrLocked when another run holds it.
func (l *Locker) Acquire(ctx context.Context, tenantID, applicantID string) (*Lock, error) {
	key := lockKey(tenantID, applicantID)
	token := l.newToken()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{rdb: l.rdb, key: key, token: token}, nil
}

// Release deletes the lock only if it is still ours.
func (k *Lock) Release(ctx context.Context) error {
	if k == nil {
		return nil
	}
	if err := releaseScript.Run(ctx, k.rdb, []string{k.key}, k.token).Err(); err != nil {
		return fmt.Errorf("release lock %s: %w", k.key, err)
	}
	return nil
}
