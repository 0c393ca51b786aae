package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"userhub/internal/common"
	"userhub/internal/common/security"
	"userhub/internal/domain/model"
	"userhub/internal/domain/repository"
	"userhub/internal/event"

	"github.com/google/uuid"
)

type UserService struct {
	userRepo repository.UserRepository
	bus      *event.Bus
	logger   *slog.Logger
}

func NewUserService(userRepo repository.UserRepository, bus *event.Bus, logger *slog.Logger) *UserService {
	return &UserService{userRepo: userRepo, bus: bus, logger: logger}
}

type CreateUserRequest struct {
	Email     string           `json:"email"`
	Password  string           `json:"password"`
	Type      model.UserType   `json:"type"`
	Roles     []model.UserRole `json:"roles,omitempty"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Username  string           `json:"username"`
}

// UpdateUserRequest carries partial updates; nil fields are left unchanged.
type UpdateUserRequest struct {
	Email     *string          `json:"email,omitempty"`
	Password  *string          `json:"password,omitempty"`
	Type      *model.UserType  `json:"type,omitempty"`
	Roles     []model.UserRole `json:"roles,omitempty"`
	FirstName *string          `json:"first_name,omitempty"`
	LastName  *string          `json:"last_name,omitempty"`
	Username  *string          `json:"username,omitempty"`
}

func (s *UserService) FindUnique(ctx context.Context, id string) (*model.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// FindCurrent resolves the authenticated caller from its token claims.
func (s *UserService) FindCurrent(ctx context.Context, claims *security.Claims) (*model.User, error) {
	return s.userRepo.FindByIDAndEmail(ctx, claims.UserID, claims.Email)
}

func (s *UserService) FindMany(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.FindAll(ctx)
}

// CreateOne creates a user on behalf of an administrator. Roles default to
// the policy set for the requested type when not given explicitly.
func (s *UserService) CreateOne(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	if req.Email == "" || req.Password == "" || req.Type == "" {
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
			EventName:   "createOne",
			ServiceName: "UserService",
			Message:     "User already exists",
			Context: map[string]interface{}{
				"email": req.Email,
			},
		})
		return nil, fmt.Errorf("user already exists: %w", common.ErrConflict)
	}

	roles := req.Roles
	if len(roles) == 0 {
		roles = model.RolesForType(req.Type)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Email:          req.Email,
		Type:           req.Type,
		Roles:          roles,
		HashedPassword: hashedPassword,
		Profile: &model.Profile{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Username:  req.Username,
		},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.HashedPassword = ""
	return user, nil
}

// UpdateOne applies a partial update. A type change without explicit roles
// recomputes the role set from policy, replacing the prior set entirely;
// explicit roles are preserved as given.
func (s *UserService) UpdateOne(ctx context.Context, id string, req UpdateUserRequest) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Type != nil {
		user.Type = *req.Type
		if req.Roles == nil {
			user.Roles = model.RolesForType(*req.Type)
		}
	}
	if req.Roles != nil {
		user.Roles = req.Roles
	}
	if req.Password != nil {
		hashedPassword, err := security.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.HashedPassword = hashedPassword
	} else {
		user.HashedPassword = ""
	}

	if req.FirstName != nil || req.LastName != nil || req.Username != nil {
		if user.Profile == nil {
			user.Profile = &model.Profile{}
		}
		if req.FirstName != nil {
			user.Profile.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			user.Profile.LastName = *req.LastName
		}
		if req.Username != nil {
			user.Profile.Username = *req.Username
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	user.HashedPassword = ""
	return user, nil
}

// DeleteOne removes the user and returns the deleted record.
func (s *UserService) DeleteOne(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) emitLog(ctx context.Context, logEvent *model.LogEvent) {
	if err := s.bus.Emit(ctx, event.EventCreateLog, logEvent); err != nil {
		s.logger.Error("audit log emission failed", "event", logEvent.EventName, "error", err)
	}
}
