package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/belzunces/monsieurchef/internal/models"
	"github.com/belzunces/monsieurchef/internal/types"
)

// AuthService issues API tokens on top of the store's session pointers.
// Each token carries its own session id, so logging out one token leaves
// other clients of the same account signed in.
type AuthService struct {
	store     IRecipeStore
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithTokenClock overrides the time source used to issue and check tokens.
func WithTokenClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// NewAuthService creates an AuthService. A zero ttl means 24 hours.
func NewAuthService(store IRecipeStore, jwtSecret string, ttl time.Duration, opts ...AuthOption) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &AuthService{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account in a fresh session and returns a token for it.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (string, *models.User, error) {
	sessionID := uuid.New().String()
	user, err := s.store.Register(ctx, sessionID, email, password, name)
	if err != nil {
		return "", nil, err
	}
	token, err := s.generateToken(user.ID, sessionID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Login signs in a fresh session and returns a token for it.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	sessionID := uuid.New().String()
	user, err := s.store.Login(ctx, sessionID, email, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.generateToken(user.ID, sessionID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Logout clears the session the token was issued for.
func (s *AuthService) Logout(ctx context.Context, claims *types.TokenClaims) error {
	return s.store.Logout(ctx, claims.SessionID)
}

// Me returns the user behind a validated token.
func (s *AuthService) Me(ctx context.Context, claims *types.TokenClaims) (*models.User, error) {
	user, err := s.store.CurrentUser(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *AuthService) generateToken(userID, sessionID string) (string, error) {
	now := s.now()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:    userID,
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks the signature and expiry, then that the token's
// session still points at the token's user. Tokens of logged out sessions
// are rejected.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if errors.Is(err, jwt.ErrTokenExpired) {
		// The signature checked out, so the session id is ours to clear.
		s.dropSession(ctx, claims.SessionID)
		return nil, ErrInvalidToken
	}
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.store.CurrentUser(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.ID != claims.UserID {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) dropSession(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.store.Logout(ctx, sessionID); err != nil {
		slog.WarnContext(ctx, "auth: clearing expired session failed", "error", err)
	}
}
