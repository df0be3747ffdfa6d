package logintokens

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/clipher/internal/common"
	"github.com/dmitrijs2005/clipher/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := NewMemoryRepository()

	require.NoError(t, r.Add(ctx, &models.LoginToken{Token: "a", UserName: "alice", ExpiresAt: t0}))
	require.NoError(t, r.Add(ctx, &models.LoginToken{Token: "b", UserName: "bob", ExpiresAt: t0.Add(time.Minute)}))
	require.ErrorIs(t, r.Add(ctx, &models.LoginToken{Token: "a"}), common.ErrorAlreadyExists)

	got, err := r.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "bob", got.UserName)

	expired, err := r.ListExpired(ctx, t0)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "a", expired[0].Token)

	n, err := r.DeleteExpired(ctx, t0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	ok, err := r.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRepository_RemoveIsSingleUse(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	require.NoError(t, r.Add(ctx, &models.LoginToken{Token: "tok", UserName: "alice"}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := r.Remove(ctx, "tok"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
}
