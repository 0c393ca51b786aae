package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
	"userhub/internal/common"
	"userhub/internal/common/security"
	"userhub/internal/domain/model"
	"userhub/internal/domain/repository"
	"userhub/internal/event"
	"userhub/internal/platform/config"
)

// fakeUserRepo is an in-memory UserRepository used by the service tests.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func cloneUser(user *model.User) *model.User {
	clone := *user
	if user.Profile != nil {
		profile := *user.Profile
		clone.Profile = &profile
	}
	clone.Roles = append([]model.UserRole(nil), user.Roles...)
	return &clone
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
	}
	stored := cloneUser(user)
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.users[user.ID] = stored
	return nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return cloneUser(user), nil
}

func (f *fakeUserRepo) FindByIDAndEmail(ctx context.Context, id, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok || user.Email != email {
		return nil, common.ErrNotFound
	}
	return cloneUser(user), nil
}

func (f *fakeUserRepo) FindAll(ctx context.Context) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make([]*model.User, 0, len(f.users))
	for _, user := range f.users {
		users = append(users, cloneUser(user))
	}
	return users, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.users[user.ID]
	if !ok {
		return common.ErrNotFound
	}
	updated := cloneUser(user)
	if updated.HashedPassword == "" {
		updated.HashedPassword = existing.HashedPassword
	}
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()
	f.users[user.ID] = updated
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

// fakeLogRepo records created log records.
type fakeLogRepo struct {
	mu      sync.Mutex
	created []*model.LogRecord
}

func (f *fakeLogRepo) Create(ctx context.Context, record *model.LogRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record.CreatedAt = time.Now()
	f.created = append(f.created, record)
	return nil
}

func (f *fakeLogRepo) FindByID(ctx context.Context, id string) (*model.LogRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.created {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeLogRepo) FindAll(ctx context.Context, filter repository.LogFilter) ([]*model.LogRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var records []*model.LogRecord
	for _, record := range f.created {
		if filter.Type != "" && record.Type != filter.Type {
			continue
		}
		if filter.From != "" && record.From != filter.From {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// capturingBus returns a bus with a listener that records every create.log
// event it receives.
func capturingBus() (*event.Bus, *[]*model.LogEvent) {
	bus := event.NewBus()
	var events []*model.LogEvent
	bus.Subscribe(event.EventCreateLog, func(ctx context.Context, logEvent *model.LogEvent) error {
		events = append(events, logEvent)
		return nil
	})
	return bus, &events
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func initTestConfig(t *testing.T) {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTKey:     []byte("test-secret-key-at-least-32-chars"),
		JWTExp:     time.Hour,
		BcryptCost: 4,
	}
	security.InitJWT()
}
