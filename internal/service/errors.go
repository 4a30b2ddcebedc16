package service

import (
	"errors"
	"fmt"
	"strings"

	"yayasan/internal/policy"
	"yayasan/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPrecondition       = errors.New("precondition failed")
	ErrConflict           = errors.New("conflict")
	ErrUnresolvedActor    = errors.New("signed-in account has no role assigned")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrStorage            = errors.New("storage failure, please try again")
)

// forbidden wraps a policy decision so callers can match ErrForbidden and
// still reach the *policy.Denial for its reason.
func forbidden(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, policy.ErrNotApproved) {
		return fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	if errors.Is(err, policy.ErrInvalidTransition) {
		return fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	return fmt.Errorf("%w: %w", ErrForbidden, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// storeErr converts a repository error into one of the service errors.
// Unexpected failures are logged here and surface as ErrStorage.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, repository.ErrStaleVersion):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	case isDuplicate(err):
		return fmt.Errorf("%s: %w: record already exists", op, ErrConflict)
	}

	log.Error().Err(err).Str("op", op).Msg("storage failure")
	return fmt.Errorf("%s: %w", op, ErrStorage)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// passthrough keeps service errors produced inside a transaction intact and
// converts everything else.
func passthrough(op string, err error) error {
	for _, known := range []error{ErrNotFound, ErrForbidden, ErrInvalidInput, ErrPrecondition, ErrConflict, ErrUnresolvedActor, ErrStorage} {
		if errors.Is(err, known) {
			return err
		}
	}
	return storeErr(op, err)
}
