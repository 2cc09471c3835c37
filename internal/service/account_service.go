package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/order-service/internal/domain"
	"github.com/spec-kit/order-service/internal/repository"
	apperrors "github.com/spec-kit/order-service/pkg/util"
)

// AccountService manages customer registration, authentication and profile
// maintenance. Credentials are stored and compared as opaque strings; this
// is the placeholder contract, not a security mechanism.
type AccountService struct {
	users repository.UserRepository
	uow   repository.UnitOfWork
}

// AccountDependencies bundles requirements for the account service.
type AccountDependencies struct {
	UserRepo   repository.UserRepository
	UnitOfWork repository.UnitOfWork
}

// RegisterInput describes a registration payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Address  string
	Phone    string
}

// UpdateUserInput describes a profile update. Password is only overwritten
// when a non-empty value is supplied.
type UpdateUserInput struct {
	Name     string
	Email    string
	Password string
	Address  string
	Phone    string
}

// NewAccountService builds the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	return &AccountService{
		users: deps.UserRepo,
		uow:   deps.UnitOfWork,
	}
}

// Register creates a new customer after validating the candidate fields and
// email uniqueness.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if err := validateRegistration(input); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(input.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewValidationError("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: input.Password,
		Address:  strings.TrimSpace(input.Address),
		Phone:    strings.TrimSpace(input.Phone),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// Authenticate matches email and password exactly and returns the user.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByCredentials(ctx, strings.TrimSpace(email), password)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewAuthError("credentials incorrect")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// GetByID fetches a user.
func (s *AccountService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// List returns all users.
func (s *AccountService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// Update overwrites profile fields, re-checking email uniqueness against
// other users when the email changes.
func (s *AccountService) Update(ctx context.Context, id int64, input UpdateUserInput) (*domain.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(input.Email)
	if email != user.Email {
		existing, err := s.users.GetByEmail(ctx, email)
		if err == nil && existing.ID != id {
			return nil, apperrors.NewValidationError("email already registered", map[string]any{"email": email})
		}
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInternalError(err)
		}
	}

	user.Name = strings.TrimSpace(input.Name)
	user.Email = email
	user.Address = strings.TrimSpace(input.Address)
	user.Phone = strings.TrimSpace(input.Phone)
	if input.Password != "" {
		if len(input.Password) < minPasswordLength {
			return nil, apperrors.NewValidationError("password must be at least 6 characters", nil)
		}
		user.Password = input.Password
	}

	if err := validateProfile(user); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// Delete removes the user and, as one transaction, every order the user
// owns. The cascade is an explicit store operation, not a graph traversal.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	err := s.uow.WithinTx(ctx, func(stores repository.Stores) error {
		if _, err := stores.Users.GetByID(ctx, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("user", map[string]any{"id": id})
			}
			return err
		}
		if err := stores.Orders.DeleteByUser(ctx, id); err != nil {
			return err
		}
		return stores.Users.Delete(ctx, id)
	})
	if err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

const (
	maxNameLength     = 100
	maxEmailLength    = 100
	maxAddressLength  = 255
	maxPhoneLength    = 20
	minPasswordLength = 6
)

func validateRegistration(input RegisterInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.NewValidationError("name is required", nil)
	}
	if strings.TrimSpace(input.Email) == "" {
		return apperrors.NewValidationError("email is required", nil)
	}
	if len(input.Password) < minPasswordLength {
		return apperrors.NewValidationError("password must be at least 6 characters", nil)
	}
	if strings.TrimSpace(input.Address) == "" {
		return apperrors.NewValidationError("address is required", nil)
	}
	if strings.TrimSpace(input.Phone) == "" {
		return apperrors.NewValidationError("phone is required", nil)
	}
	return validateProfile(&domain.User{
		Name:    strings.TrimSpace(input.Name),
		Email:   strings.TrimSpace(input.Email),
		Address: strings.TrimSpace(input.Address),
		Phone:   strings.TrimSpace(input.Phone),
	})
}

func validateProfile(user *domain.User) error {
	if len(user.Name) > maxNameLength {
		return apperrors.NewValidationError("name must not exceed 100 characters", nil)
	}
	if len(user.Email) > maxEmailLength {
		return apperrors.NewValidationError("email must not exceed 100 characters", nil)
	}
	if len(user.Address) > maxAddressLength {
		return apperrors.NewValidationError("address must not exceed 255 characters", nil)
	}
	if len(user.Phone) > maxPhoneLength {
		return apperrors.NewValidationError("phone must not exceed 20 characters", nil)
	}
	return nil
}
