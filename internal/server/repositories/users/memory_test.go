package users

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/clipher/internal/common"
	"github.com/dmitrijs2005/clipher/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	_, err := r.Get(ctx, "alice")
	require.ErrorIs(t, err, common.ErrorNotFound)

	u := &models.User{UserName: "alice", HashedPassword: "h"}
	require.NoError(t, r.Add(ctx, u))
	require.ErrorIs(t, r.Add(ctx, u), common.ErrorAlreadyExists)

	// stored value is a copy
	u.HashedPassword = "mutated"
	got, err := r.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "h", got.HashedPassword)

	ok, err := r.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	flipped, err := r.SetTfaVerified(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = r.SetTfaVerified(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, flipped, "second verification must not flip again")

	flipped, err = r.SetTfaVerified(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, flipped)

	removed, err := r.Remove(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = r.Remove(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, removed)
}
