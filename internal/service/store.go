package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/belzunces/monsieurchef/internal/kv"
	"github.com/belzunces/monsieurchef/internal/models"
)

// Collection keys. The session pointer is stored per client session as
// "<currentUserPrefix>:<sessionID>".
const (
	usersKey          = "mcc_users"
	recipesKey        = "mcc_saved_recipes"
	currentUserPrefix = "mcc_current_user"
)

// DefaultSessionTTL is how long a session pointer outlives its last sign-in.
const DefaultSessionTTL = 30 * 24 * time.Hour

// RecipeStore manages users, session pointers and saved recipes on top of
// a kv.Store. Every operation is a read-modify-write of a whole JSON
// collection, serialized by mu within this process.
type RecipeStore struct {
	kv         kv.Store
	mu         sync.Mutex
	now        func() time.Time
	newID      func() string
	hashCost   int
	sessionTTL time.Duration
}

// StoreOption configures a RecipeStore.
type StoreOption func(*RecipeStore)

// WithClock overrides the time source used for savedAt.
func WithClock(now func() time.Time) StoreOption {
	return func(s *RecipeStore) { s.now = now }
}

// WithHashCost sets the bcrypt cost used for new passwords.
func WithHashCost(cost int) StoreOption {
	return func(s *RecipeStore) { s.hashCost = cost }
}

// WithSessionTTL sets how long a session pointer is kept after sign-in.
func WithSessionTTL(ttl time.Duration) StoreOption {
	return func(s *RecipeStore) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// NewRecipeStore creates a store over the given key-value backend.
func NewRecipeStore(store kv.Store, opts ...StoreOption) *RecipeStore {
	s := &RecipeStore{
		kv:         store,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
		hashCost:   bcrypt.DefaultCost,
		sessionTTL: DefaultSessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sessionKey(sessionID string) string {
	return currentUserPrefix + ":" + sessionID
}

// Register creates an account and makes it the session's current user.
func (s *RecipeStore) Register(ctx context.Context, sessionID, email, password, name string) (*models.User, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == email {
			return nil, ErrUserExists
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("store: hashing password: %w", err)
	}

	record := models.UserRecord{
		ID:           s.newID(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	users = append(users, record)
	if err := kv.SetJSON(ctx, s.kv, usersKey, users); err != nil {
		return nil, err
	}

	user := record.Public()
	if err := s.setSessionLocked(ctx, sessionID, user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login sets the session's current user when email and password match a record.
func (s *RecipeStore) Login(ctx context.Context, sessionID, email, password string) (*models.User, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	email = strings.TrimSpace(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	var record *models.UserRecord
	for i := range users {
		if users[i].Email == email {
			record = &users[i]
			break
		}
	}
	if record == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user := record.Public()
	if err := s.setSessionLocked(ctx, sessionID, user); err != nil {
		return nil, err
	}
	return &user, nil
}

// setSessionLocked points the session at user. The pointer expires after
// sessionTTL, so abandoned sessions are reclaimed by the backend.
func (s *RecipeStore) setSessionLocked(ctx context.Context, sessionID string, user models.User) error {
	return kv.SetJSONWithTTL(ctx, s.kv, sessionKey(sessionID), user, s.sessionTTL)
}

// Logout clears the session pointer.
func (s *RecipeStore) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	return s.kv.Remove(ctx, sessionKey(sessionID))
}

// CurrentUser returns the session's user, or nil when nobody is logged in
// or the session pointer has expired.
func (s *RecipeStore) CurrentUser(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, nil
	}
	var user models.User
	found, err := kv.GetJSON(ctx, s.kv, sessionKey(sessionID), &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// SaveOption adjusts a recipe being saved.
type SaveOption func(*models.SavedRecipe)

// WithSourceImage records the URL of the photo the recipe was converted from.
func WithSourceImage(url string) SaveOption {
	return func(r *models.SavedRecipe) { r.SourceImage = url }
}

// SaveRecipe stores an owner-tagged copy of recipe under a new id.
func (s *RecipeStore) SaveRecipe(ctx context.Context, userID string, recipe models.Recipe, opts ...SaveOption) (*models.SavedRecipe, error) {
	if userID == "" {
		return nil, ErrLoginRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recipes, err := s.loadRecipes(ctx)
	if err != nil {
		return nil, err
	}

	saved := models.SavedRecipe{
		Recipe:  recipe,
		ID:      s.newID(),
		UserID:  userID,
		SavedAt: s.now().UnixMilli(),
	}
	for _, opt := range opts {
		opt(&saved)
	}

	recipes = append(recipes, saved)
	if err := kv.SetJSON(ctx, s.kv, recipesKey, recipes); err != nil {
		return nil, err
	}
	return &saved, nil
}

// SavedRecipes returns the user's recipes, newest first. Recipes saved in
// the same millisecond keep reverse insertion order.
func (s *RecipeStore) SavedRecipes(ctx context.Context, userID string) ([]models.SavedRecipe, error) {
	s.mu.Lock()
	recipes, err := s.loadRecipes(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]models.SavedRecipe, 0)
	for i := len(recipes) - 1; i >= 0; i-- {
		if recipes[i].UserID == userID {
			out = append(out, recipes[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SavedAt > out[j].SavedAt
	})
	return out, nil
}

// SavedRecipe looks a saved recipe up by id.
func (s *RecipeStore) SavedRecipe(ctx context.Context, id string) (*models.SavedRecipe, error) {
	s.mu.Lock()
	recipes, err := s.loadRecipes(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for i := range recipes {
		if recipes[i].ID == id {
			return &recipes[i], nil
		}
	}
	return nil, ErrRecipeNotFound
}

// DeleteRecipe removes the recipe with the given id, whoever owns it.
// Deleting an unknown id is a no-op.
func (s *RecipeStore) DeleteRecipe(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recipes, err := s.loadRecipes(ctx)
	if err != nil {
		return err
	}

	kept := recipes[:0]
	for _, r := range recipes {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(recipes) {
		return nil
	}
	return kv.SetJSON(ctx, s.kv, recipesKey, kept)
}

func (s *RecipeStore) loadUsers(ctx context.Context) ([]models.UserRecord, error) {
	var users []models.UserRecord
	if _, err := kv.GetJSON(ctx, s.kv, usersKey, &users); err != nil {
		return nil, fmt.Errorf("store: loading users: %w", err)
	}
	return users, nil
}

func (s *RecipeStore) loadRecipes(ctx context.Context) ([]models.SavedRecipe, error) {
	var recipes []models.SavedRecipe
	if _, err := kv.GetJSON(ctx, s.kv, recipesKey, &recipes); err != nil {
		return nil, fmt.Errorf("store: loading recipes: %w", err)
	}
	return recipes, nil
}

// IsAuthError reports whether err is one of the auth failures shown inline
// in the login form.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUserExists) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrNameRequired)
}
