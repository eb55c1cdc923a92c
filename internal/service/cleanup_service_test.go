package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/user/moviechat/internal/repository"
)

func TestCleanupServiceRemovesExpiredSessions(t *testing.T) {
	store := repository.NewSessionStore(20 * time.Millisecond)
	for _, id := range []string{"a", "b"} {
		_, release := store.Acquire(id)
		release()
	}

	svc := NewCleanupService(store, time.Hour)
	assert.Zero(t, svc.RunOnce())

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 2, svc.RunOnce())
	assert.Zero(t, store.Len())
}

func TestCleanupServiceStopsWithContext(t *testing.T) {
	store := repository.NewSessionStore(0)
	ctx, cancel := context.WithCancel(context.Background())
	NewCleanupService(store, 5*time.Millisecond).Start(ctx)
	cancel()
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, store.Len())
}
