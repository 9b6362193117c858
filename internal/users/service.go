package users

import (
	"context"
	"fmt"
	"time"

	"github.com/fitleague/fitleague/internal/platform/httpx"
)

// ErrUserNotFound wraps the not-found sentinel for handler mapping.
var ErrUserNotFound = fmt.Errorf("%w: user", httpx.ErrNotFound)

// RepositoryPort defines data access methods for user profiles.
type RepositoryPort interface {
	GetUser(ctx context.Context, id int64) (User, error)
	UpdateProfile(ctx context.Context, id int64, name string, birthDate time.Time) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// Service handles profile business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetProfile returns a user's profile.
func (s *Service) GetProfile(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// UpdateProfile changes the mutable profile fields. The birth date may not be
// in the future.
func (s *Service) UpdateProfile(ctx context.Context, id int64, name string, birthDate time.Time) (User, error) {
	if birthDate.After(time.Now().UTC()) {
		return User{}, httpx.NewFieldErrors(map[string]string{"birth_date": "must not be in the future"})
	}
	return s.repo.UpdateProfile(ctx, id, name, birthDate)
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// AgeYears reports the user's fractional age at the given instant. It
// satisfies the profile port consumed by the submission workflow.
func (s *Service) AgeYears(ctx context.Context, userID int64, at time.Time) (float64, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.AgeYearsAt(at), nil
}
