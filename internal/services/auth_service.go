package services

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"budge/internal/auth"
	"budge/internal/core"
	"budge/internal/storage"
)

const msgInvalidCredentials = "invalid email or password"

// AuthService registers users and exchanges credentials for bearer tokens.
type AuthService struct {
	users      UserStore
	tokens     TokenIssuer
	bcryptCost int
}

func NewAuthService(users UserStore, tokens TokenIssuer, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (core.User, string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return core.User{}, "", core.E(core.InvalidArgument, "name, email, and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return core.User{}, "", core.Wrap(core.InvalidArgument, "invalid email address", err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return core.User{}, "", core.Invalid(err)
		}
		return core.User{}, "", core.Wrap(core.StoreFailure, "hash password", err)
	}

	u, err := s.users.CreateUser(ctx, core.User{Name: name, Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return core.User{}, "", core.Wrap(core.Conflict, "email already in use", err)
		}
		return core.User{}, "", core.Store("create user", err)
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return core.User{}, "", core.Wrap(core.StoreFailure, "issue token", err)
	}
	return u, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (core.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return core.User{}, "", core.E(core.InvalidArgument, "email and password are required")
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.User{}, "", core.Wrap(core.Unauthenticated, msgInvalidCredentials, err)
		}
		return core.User{}, "", core.Store("get user", err)
	}
	if !auth.CheckPasswordHash(password, u.PasswordHash) {
		slog.WarnContext(ctx, "Failed login attempt", "user_id", u.ID)
		return core.User{}, "", core.E(core.Unauthenticated, msgInvalidCredentials)
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return core.User{}, "", core.Wrap(core.StoreFailure, "issue token", err)
	}
	return u, token, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (core.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.User{}, core.Wrap(core.NotFound, "user not found", err)
		}
		return core.User{}, core.Store("get user", err)
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
