package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/belzunces/monsieurchef/internal/kv"
	"github.com/belzunces/monsieurchef/internal/models"
	"github.com/belzunces/monsieurchef/internal/service"
)

// stepClock advances one millisecond per call so savedAt is strictly increasing.
func stepClock() func() time.Time {
	t := time.UnixMilli(1_700_000_000_000)
	return func() time.Time {
		t = t.Add(time.Millisecond)
		return t
	}
}

func newTestStore(t *testing.T, opts ...service.StoreOption) (*service.RecipeStore, kv.Store) {
	t.Helper()
	backend := kv.NewMemoryStore()
	opts = append([]service.StoreOption{service.WithHashCost(bcrypt.MinCost)}, opts...)
	return service.NewRecipeStore(backend, opts...), backend
}

func recipeTitled(title string) models.Recipe {
	return models.Recipe{
		Title:       title,
		Ingredients: []string{"1 huevo"},
		Steps:       []models.RecipeStep{{Instruction: "Batir"}},
	}
}

func TestRegisterSetsCurrentUser(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	user, err := store.Register(ctx, "s1", "  ana@example.com ", "pw", " Ana ")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "Ana", user.Name)
	assert.NotEmpty(t, user.ID)

	current, err := store.CurrentUser(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, user, current)

	raw, err := backend.Get(ctx, "mcc_users")
	require.NoError(t, err)
	assert.NotContains(t, raw, `"pw"`)
}

func TestRegisterRequiresName(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Register(context.Background(), "s1", "a@b.c", "pw", "   ")
	assert.ErrorIs(t, err, service.ErrNameRequired)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	first, err := store.Register(ctx, "s1", "ana@example.com", "pw", "Ana")
	require.NoError(t, err)

	_, err = store.Register(ctx, "s2", "ana@example.com", "other", "Otra")
	assert.ErrorIs(t, err, service.ErrUserExists)
	assert.True(t, service.IsAuthError(err))

	current, err := store.CurrentUser(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first, current)

	none, err := store.CurrentUser(ctx, "s2")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	registered, err := store.Register(ctx, "s1", "ana@example.com", "secreto", "Ana")
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := store.Login(ctx, "s2", "ana@example.com", "nope")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)

		current, err := store.CurrentUser(ctx, "s2")
		require.NoError(t, err)
		assert.Nil(t, current)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := store.Login(ctx, "s2", "bob@example.com", "secreto")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("email is case sensitive", func(t *testing.T) {
		_, err := store.Login(ctx, "s2", "Ana@example.com", "secreto")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("success", func(t *testing.T) {
		user, err := store.Login(ctx, "s2", "ana@example.com", "secreto")
		require.NoError(t, err)
		assert.Equal(t, registered, user)

		current, err := store.CurrentUser(ctx, "s2")
		require.NoError(t, err)
		assert.Equal(t, registered, current)
	})
}

func TestLogoutClearsOnlyThatSession(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.Register(ctx, "s1", "ana@example.com", "pw", "Ana")
	require.NoError(t, err)
	_, err = store.Login(ctx, "s2", "ana@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, store.Logout(ctx, "s1"))

	gone, err := store.CurrentUser(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, gone)

	still, err := store.CurrentUser(ctx, "s2")
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestSessionPointerExpires(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t, service.WithSessionTTL(50*time.Millisecond))

	_, err := store.Register(ctx, "web-session", "ana@example.com", "pw", "Ana")
	require.NoError(t, err)
	_, err = backend.Get(ctx, "mcc_current_user:web-session")
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	current, err := store.CurrentUser(ctx, "web-session")
	require.NoError(t, err)
	assert.Nil(t, current)
	_, err = backend.Get(ctx, "mcc_current_user:web-session")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	// The account itself does not expire.
	user, err := store.Login(ctx, "web-session-2", "ana@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
}

func TestSessionRequired(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.Register(ctx, "", "a@b.c", "pw", "Ana")
	assert.ErrorIs(t, err, service.ErrSessionRequired)
	_, err = store.Login(ctx, "", "a@b.c", "pw")
	assert.ErrorIs(t, err, service.ErrSessionRequired)
	assert.ErrorIs(t, store.Logout(ctx, ""), service.ErrSessionRequired)

	user, err := store.CurrentUser(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestSaveRecipeRequiresUser(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.SaveRecipe(context.Background(), "", recipeTitled("Tortilla"))
	assert.ErrorIs(t, err, service.ErrLoginRequired)
}

func TestSavedRecipesPerUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, service.WithClock(stepClock()))

	// Interleave two owners.
	for _, s := range []struct{ user, title string }{
		{"u1", "A1"}, {"u2", "B1"}, {"u1", "A2"}, {"u2", "B2"}, {"u2", "B3"}, {"u1", "A3"},
	} {
		_, err := store.SaveRecipe(ctx, s.user, recipeTitled(s.title))
		require.NoError(t, err)
	}

	titles := func(userID string) []string {
		recipes, err := store.SavedRecipes(ctx, userID)
		require.NoError(t, err)
		out := make([]string, len(recipes))
		for i, r := range recipes {
			assert.Equal(t, userID, r.UserID)
			out[i] = r.Title
		}
		return out
	}

	assert.Equal(t, []string{"A3", "A2", "A1"}, titles("u1"))
	assert.Equal(t, []string{"B3", "B2", "B1"}, titles("u2"))
	assert.Empty(t, titles("u3"))
}

func TestSavedRecipesSameMillisecondKeepsReverseInsertion(t *testing.T) {
	ctx := context.Background()
	fixed := time.UnixMilli(1_700_000_000_000)
	store, _ := newTestStore(t, service.WithClock(func() time.Time { return fixed }))

	for _, title := range []string{"primera", "segunda", "tercera"} {
		_, err := store.SaveRecipe(ctx, "u1", recipeTitled(title))
		require.NoError(t, err)
	}

	recipes, err := store.SavedRecipes(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, recipes, 3)
	assert.Equal(t, "tercera", recipes[0].Title)
	assert.Equal(t, "primera", recipes[2].Title)
}

func TestSaveRecipeAssignsIDAndSourceImage(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	a, err := store.SaveRecipe(ctx, "u1", recipeTitled("A"), service.WithSourceImage("https://bucket/a.png"))
	require.NoError(t, err)
	b, err := store.SaveRecipe(ctx, "u1", recipeTitled("A"))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotZero(t, a.SavedAt)
	assert.Equal(t, "https://bucket/a.png", a.SourceImage)
	assert.Empty(t, b.SourceImage)

	got, err := store.SavedRecipe(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = store.SavedRecipe(ctx, "missing")
	assert.ErrorIs(t, err, service.ErrRecipeNotFound)
}

func TestDeleteRecipe(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, service.WithClock(stepClock()))

	a, err := store.SaveRecipe(ctx, "u1", recipeTitled("A"))
	require.NoError(t, err)
	b, err := store.SaveRecipe(ctx, "u1", recipeTitled("B"))
	require.NoError(t, err)
	c, err := store.SaveRecipe(ctx, "u2", recipeTitled("C"))
	require.NoError(t, err)

	require.NoError(t, store.DeleteRecipe(ctx, a.ID))

	u1, err := store.SavedRecipes(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, u1, 1)
	assert.Equal(t, b.ID, u1[0].ID)

	u2, err := store.SavedRecipes(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, u2, 1)
	assert.Equal(t, c.ID, u2[0].ID)

	t.Run("unknown id is a no-op", func(t *testing.T) {
		require.NoError(t, store.DeleteRecipe(ctx, "does-not-exist"))
		remaining, err := store.SavedRecipes(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
	})
}
