package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yayasan/internal/model"
	"yayasan/internal/policy"
	"yayasan/internal/repository"
	"yayasan/pkg/token"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

type UpdateEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// UserService is the identity-provider surface: accounts, passwords and
// access tokens. Roles of staff members live in the staff collections.
type UserService interface {
	SignIn(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error)
	UpdateEmail(ctx context.Context, actor Actor, id string, req UpdateEmailRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actor Actor, id string) error
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ResetPassword(ctx context.Context, email, password string) error
}

type userService struct {
	tx     repository.TransactionManager
	repo   repository.UserRepository
	staff  repository.StaffRepository
	audit  repository.AuditRepository
	secret []byte
	ttl    time.Duration
}

// NewUserService returns a new instance of UserService
func NewUserService(tx repository.TransactionManager, repo repository.UserRepository, staff repository.StaffRepository, audit repository.AuditRepository, secret []byte, ttl time.Duration) UserService {
	return &userService{tx: tx, repo: repo, staff: staff, audit: audit, secret: secret, ttl: ttl}
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *userService) SignIn(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeErr("sign in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	signed, err := token.Issue(s.secret, user.ID.String(), user.Email, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &TokenResponse{
		Token:     signed,
		ExpiresAt: time.Now().Add(s.ttl).Format(time.RFC3339),
	}, nil
}

// CreateUser registers an account. Role is optional: staff accounts get
// their role from the guru or caregivers record linked to them. Accounts
// carry no branch, so branch-scoped roles must come from such a record.
func (s *userService) CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	role := ""
	if req.Role != "" {
		r, err := policy.ParseRole(req.Role)
		if err != nil {
			return nil, invalid("%s", err)
		}
		if r.IsBranchScoped() {
			return nil, invalid("role %s needs a branch: link the account to a guru or caregiver record instead", r)
		}
		role = r.String()
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email already exists", ErrConflict)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     role,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			return err
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionCreateUser, user.ID.String(), user.Email, map[string]any{
			"role": user.Role,
		})
	})
	if err != nil {
		return nil, passthrough("create user", err)
	}

	return mapToResponse(user), nil
}

// UpdateEmail changes the sign-in email and carries it over to the staff
// record linked to the account so actor resolution keeps working.
func (s *userService) UpdateEmail(ctx context.Context, actor Actor, id string, req UpdateEmailRequest) (*UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, invalid("invalid user id")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var user *model.User
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.repo.GetByID(txCtx, userID)
		if err != nil {
			return err
		}
		user = found

		if other, err := s.repo.GetByEmail(txCtx, req.Email); err == nil && other.ID != user.ID {
			return fmt.Errorf("%w: email already exists", ErrConflict)
		}

		old := user.Email
		user.Email = req.Email
		if err := s.repo.Update(txCtx, user); err != nil {
			return err
		}
		if err := s.staff.UpdateEmailByUserID(txCtx, user.ID, user.Email); err != nil {
			return err
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionUpdateUserEmail, user.ID.String(), user.Email, map[string]any{
			"old_email": old,
		})
	})
	if err != nil {
		return nil, passthrough("update user email", err)
	}

	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, actor Actor, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return invalid("invalid user id")
	}
	if userID == actor.UserID {
		return fmt.Errorf("%w: you cannot delete your own account", ErrPrecondition)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.repo.GetByID(txCtx, userID)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, user.ID); err != nil {
			return err
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionDeleteUser, user.ID.String(), user.Email, nil)
	})
	return passthrough("delete user", err)
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, invalid("invalid user id")
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return mapToResponse(user), nil
}

func (s *userService) ResetPassword(ctx context.Context, email, password string) error {
	if len(password) < 6 {
		return invalid("password must be at least 6 characters")
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return storeErr("reset password", err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash password")
	}
	user.Password = string(hashed)
	return storeErr("reset password", s.repo.Update(ctx, user))
}
