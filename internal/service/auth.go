package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/imf-gadgets/gadget-api/internal/hash"
	"github.com/imf-gadgets/gadget-api/internal/logging"
	"github.com/imf-gadgets/gadget-api/internal/models"
	"github.com/imf-gadgets/gadget-api/internal/mykafka"
	"github.com/imf-gadgets/gadget-api/internal/repo"
	"github.com/imf-gadgets/gadget-api/internal/tokens"
)

type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	AddRefreshToken(ctx context.Context, userID uuid.UUID, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, userID uuid.UUID, token string) (int64, error)
}

type AuthService struct {
	Store  UserStore
	Codec  *tokens.Codec
	Events Publisher
}

func NewAuthService(store UserStore, codec *tokens.Codec, events Publisher) *AuthService {
	return &AuthService{Store: store, Codec: codec, Events: events}
}

type LoginResult struct {
	User   *models.User
	Tokens tokens.Pair
}

// compared against when the email is unknown so both failure paths cost one bcrypt check
var dummyHash, _ = hash.HashPassword("imf-dummy-password")

func (s *AuthService) Signup(ctx context.Context, email, password string) (*models.User, error) {
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.Store.CreateUser(ctx, email, pwHash)
	if err != nil {
		if repo.KindOf(err) == repo.UniqueViolation {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	publish(ctx, s.Events, mykafka.TopicUserEvents, user.ID.String(), UserEvent{
		Type:   "user_signed_up",
		UserID: user.ID,
		Email:  user.Email,
		At:     time.Now(),
	})
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.Store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		hash.CheckPassword(dummyHash, password)
		return nil, ErrInvalidCredentials
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.Codec.Issue(tokens.User{ID: user.ID, Email: user.Email})
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	if _, err := s.Store.AddRefreshToken(ctx, user.ID, pair.Refresh); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	publish(ctx, s.Events, mykafka.TopicUserEvents, user.ID.String(), UserEvent{
		Type:   "user_logged_in",
		UserID: user.ID,
		Email:  user.Email,
		At:     time.Now(),
	})
	return &LoginResult{User: user, Tokens: pair}, nil
}

// Logout deletes the stored refresh token when it still verifies.
// Unverifiable tokens are ignored: they cannot be used to reissue anyway.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.Codec.VerifyRefresh(refreshToken)
	if err != nil {
		logging.FromContext(ctx).Debug("logout_refresh_unverified", "reason", err.Error())
		return nil
	}

	n, err := s.Store.RevokeRefreshToken(ctx, claims.UserID(), refreshToken)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if n > 0 {
		publish(ctx, s.Events, mykafka.TopicUserEvents, claims.Subject, UserEvent{
			Type:   "user_logged_out",
			UserID: claims.UserID(),
			Email:  claims.Email,
			At:     time.Now(),
		})
	}
	return nil
}
