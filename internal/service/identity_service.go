package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"yayasan/internal/policy"
	"yayasan/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// IdentityService resolves the role and branch of a signed-in principal.
type IdentityService interface {
	Resolve(ctx context.Context, userID uuid.UUID, email string) (Actor, error)
}

type identityService struct {
	staff repository.StaffRepository
	users repository.UserRepository
}

func NewIdentityService(staff repository.StaffRepository, users repository.UserRepository) IdentityService {
	return &identityService{staff: staff, users: users}
}

// Resolve looks up guru, then caregivers, then the account's own role. The
// first match wins. A principal found nowhere gets no privileges at all.
func (s *identityService) Resolve(ctx context.Context, userID uuid.UUID, email string) (Actor, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Actor{}, ErrUnresolvedActor
	}
	actor := Actor{UserID: userID, Email: email}

	g, err := s.staff.FindGuruByEmail(ctx, email)
	switch {
	case err == nil:
		return withRole(actor, g.Nama, g.Role, g.Cabang)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return Actor{}, lookupFailed("guru", email, err)
	}

	c, err := s.staff.FindCaregiverByEmail(ctx, email)
	switch {
	case err == nil:
		return withRole(actor, c.Nama, c.Role, c.Cabang)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return Actor{}, lookupFailed("caregivers", email, err)
	}

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == "" {
			return Actor{}, ErrUnresolvedActor
		}
		return withRole(actor, u.Name, u.Role, "")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Actor{}, ErrUnresolvedActor
	default:
		return Actor{}, lookupFailed("users", email, err)
	}
}

func withRole(actor Actor, name, role, branch string) (Actor, error) {
	r, err := policy.ParseRole(role)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %w", ErrUnresolvedActor, err)
	}
	actor.Name = name
	actor.Role = r
	actor.Branch = strings.TrimSpace(branch)
	return actor, nil
}

func lookupFailed(collection, email string, err error) error {
	log.Error().Err(err).Str("collection", collection).Str("email", email).Msg("actor lookup failed")
	return fmt.Errorf("resolve actor: %w", ErrStorage)
}
