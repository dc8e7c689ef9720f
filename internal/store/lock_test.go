package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*Locker, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	t.Cleanup(func() { _ = db.Close() })

	l := NewLocker(db, 2*time.Minute)
	l.newToken = func() string { return "token-1" }
	return l, mock
}

func TestLocker_AcquireAndRelease(t *testing.T) {
	l, mock := newTestLocker(t)
	key := "applicant-scoring:tenant-1:a1"

	mock.ExpectSetNX(key, "token-1", 2*time.Minute).SetVal(true)
	mock.ExpectEvalSha(releaseScript.Hash(), []string{key}, "token-1").SetVal(int64(1))

	lock, err := l.Acquire(context.Background(), "tenant-1", "a1")
	require.NoError(t, err)
	require.NoError(t, lock.Release(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_AlreadyHeld(t *testing.T) {
	l, mock := newTestLocker(t)

	mock.ExpectSetNX("applicant-scoring:tenant-1:a1", "token-1", 2*time.Minute).SetVal(false)

	lock, err := l.Acquire(context.Background(), "tenant-1", "a1")

	assert.Nil(t, lock)
	assert.ErrorIs(t, err, ErrLocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_RedisError(t *testing.T) {
	l, mock := newTestLocker(t)

	mock.ExpectSetNX("applicant-scoring:tenant-1:a1", "token-1", 2*time.Minute).SetErr(errors.New("connection refused"))

	_, err := l.Acquire(context.Background(), "tenant-1", "a1")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLocked)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLock_ReleaseNil(t *testing.T) {
	var lock *Lock

	assert.NoError(t, lock.Release(context.Background()))
}
