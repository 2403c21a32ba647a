package controller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/belzunces/monsieurchef/internal/kv"
	"github.com/belzunces/monsieurchef/internal/mocks"
	"github.com/belzunces/monsieurchef/internal/service"
)

func TestRegistryReusesControllerPerSession(t *testing.T) {
	ctx := context.Background()
	store := service.NewRecipeStore(kv.NewMemoryStore(), service.WithHashCost(bcrypt.MinCost))
	reg := NewRegistry(store, new(mocks.MockConverter), nil)

	a1, err := reg.Get(ctx, "a")
	require.NoError(t, err)
	a2, err := reg.Get(ctx, "a")
	require.NoError(t, err)
	b, err := reg.Get(ctx, "b")
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
	assert.Equal(t, 2, reg.Len())

	require.NoError(t, a1.Register(ctx, "ana@example.com", "pw", "Ana"))
	assert.Nil(t, b.State().User, "sessions do not share a current user")
}

func TestRegistrySweep(t *testing.T) {
	ctx := context.Background()
	store := service.NewRecipeStore(kv.NewMemoryStore(), service.WithHashCost(bcrypt.MinCost))
	reg := NewRegistry(store, new(mocks.MockConverter), nil)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	old, err := reg.Get(ctx, "old")
	require.NoError(t, err)
	require.NoError(t, old.Register(ctx, "ana@example.com", "pw", "Ana"))

	now = now.Add(time.Hour)
	_, err = reg.Get(ctx, "fresh")
	require.NoError(t, err)

	assert.Equal(t, 1, reg.Sweep(30*time.Minute))
	assert.Equal(t, 1, reg.Len())

	// The store still remembers who was signed in on the swept session.
	back, err := reg.Get(ctx, "old")
	require.NoError(t, err)
	assert.NotSame(t, old, back)
	require.NotNil(t, back.State().User)
	assert.Equal(t, "ana@example.com", back.State().User.Email)
}
