package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"userhub/internal/common"
	"userhub/internal/common/security"
	"userhub/internal/domain/model"
	"userhub/internal/domain/repository"
	"userhub/internal/event"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type AuthService struct {
	userRepo repository.UserRepository
	bus      *event.Bus
	logger   *slog.Logger
}

func NewAuthService(userRepo repository.UserRepository, bus *event.Bus, logger *slog.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, bus: bus, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	User        *model.User `json:"user"`
}

// Login authenticates by email and password. An unknown email and a wrong
// password are indistinguishable to the caller; both fail Unauthorized and
// emit an ERROR audit event.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// The digest comparison runs even for a missing user, so both failure
	// modes cost about the same.
	digest := ""
	var userID interface{}
	if user != nil {
		digest = user.HashedPassword
		userID = user.ID
	}
	isPasswordValid := security.CheckPasswordHash(req.Password, digest)

	if user == nil || !isPasswordValid {
		s.emitLog(ctx, &model.LogEvent{
			Type:        model.LogTypeError,
			From:        model.LogFromAPI,
			EventName:   "login",
			ServiceName: "AuthService",
			Message:     "Unauthorized",
			Context: map[string]interface{}{
				"email":           req.Email,
				"userId":          userID,
				"isPasswordValid": isPasswordValid,
			},
		})
		return nil, common.ErrUnauthorized
	}

	token, err := security.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = "" // Clear password before returning
	return &AuthResponse{AccessToken: token, User: user}, nil
}

// Register creates a USER-typed account with policy-derived roles and a
// hashed credential, then issues a token for it.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if existing != nil {
		s.emitLog(ctx, &model.LogEvent{
			Type:        model.LogTypeError,
			From:        model.LogFromAPI,
			EventName:   "register",
			ServiceName: "AuthService",
			Message:     "User already exists",
			Context: map[string]interface{}{
				"email": req.Email,
			},
		})
		return nil, fmt.Errorf("user already exists: %w", common.ErrConflict)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	username := req.Username
	if username == "" {
		username = slug.Make(strings.SplitN(req.Email, "@", 2)[0])
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Email:          req.Email,
		Type:           model.TypeUser,
		Roles:          model.RolesForType(model.TypeUser),
		HashedPassword: hashedPassword,
		Profile: &model.Profile{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Username:  username,
		},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo returns common.ErrConflict on a duplicate-email race.
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := security.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{AccessToken: token, User: user}, nil
}

// Logout re-fetches the caller's user record from its claims. There is no
// revocation list: the token stays valid until expiry and the client
// discards it; the handler publishes the userLogout notification.
func (s *AuthService) Logout(ctx context.Context, claims *security.Claims) (*model.User, error) {
	user, err := s.userRepo.FindByIDAndEmail(ctx, claims.UserID, claims.Email)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// emitLog isolates audit emission: a listener failure is logged here and
// never fails the triggering business operation.
func (s *AuthService) emitLog(ctx context.Context, logEvent *model.LogEvent) {
	if err := s.bus.Emit(ctx, event.EventCreateLog, logEvent); err != nil {
		s.logger.Error("audit log emission failed", "event", logEvent.EventName, "error", err)
	}
}
