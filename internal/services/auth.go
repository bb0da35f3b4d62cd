package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/comment-system/backend/internal/apperror"
	"github.com/emilythestrangee/comment-system/backend/internal/auth"
	"github.com/emilythestrangee/comment-system/backend/internal/models"
	"github.com/emilythestrangee/comment-system/backend/internal/storage"
)

const invalidCredentials = "Invalid email or password"

type AuthService struct {
	users  storage.UserStore
	tokens *auth.TokenService
	cost   int
	log    *slog.Logger
}

func NewAuthService(users storage.UserStore, tokens *auth.TokenService, bcryptCost int, lg *slog.Logger) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, tokens: tokens, cost: bcryptCost, log: lg}
}

// Register creates an account and signs the user in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)

	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.DuplicateEmail()
	case !errors.Is(err, storage.ErrNotFound):
		return nil, apperror.Internal("Failed to look up user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, apperror.Internal("Failed to hash password", err)
	}

	user := &models.User{Name: name, Email: email, PasswordHash: string(hash)}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return nil, apperror.DuplicateEmail()
		}
		return nil, apperror.Internal("Failed to create user", err)
	}
	s.log.Info("user registered", "user_id", user.ID)

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.Unauthenticated(invalidCredentials)
	}
	if err != nil {
		return nil, apperror.Internal("Failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthenticated(invalidCredentials)
	}
	return s.issue(user)
}

// CurrentUser resolves the subject of a verified token.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.Author, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.NotFound("User not found")
	}
	if err != nil {
		return nil, apperror.Internal("Failed to load user", err)
	}
	return user.AsAuthor(), nil
}

func (s *AuthService) issue(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, apperror.Internal("Failed to generate token", err)
	}
	return &models.AuthResponse{User: user.AsAuthor(), Token: token}, nil
}
