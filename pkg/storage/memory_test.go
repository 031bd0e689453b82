package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
)

func TestMemoryStoreExpiresEntries(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "session:abc", profile{Name: "Dr. Rao"}, time.Minute))
	require.NoError(t, store.Set(ctx, KeyToken, "tok", 0))

	var got profile
	require.NoError(t, store.Get(ctx, "session:abc", &got))
	assert.Equal(t, "Dr. Rao", got.Name)

	now = now.Add(2 * time.Minute)
	err := store.Get(ctx, "session:abc", &got)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))

	var token string
	require.NoError(t, store.Get(ctx, KeyToken, &token))
	assert.Equal(t, "tok", token)

	require.NoError(t, store.Delete(ctx, KeyToken))
	assert.True(t, errors.Is(store.Get(ctx, KeyToken, &token), appErrors.ErrCacheMiss))
}
