package domain

import (
	"context"
	"errors"
)

type CreateUserRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	Role      Role
	CreatedBy string
}

type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	List(ctx context.Context) ([]User, error)
	Authenticate(ctx context.Context, email, password string) (User, error)
	ChangeRole(ctx context.Context, id string, role Role, by string) (User, error)
	Activate(ctx context.Context, id, by string) (User, error)
	Deactivate(ctx context.Context, id, by string) (User, error)
	Delete(ctx context.Context, id, by string) error
}

var (
	ErrInvalidID          = errors.New("invalid_user_id")
	ErrInvalidName        = errors.New("invalid_user_name")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrInvalidRole        = errors.New("invalid_role")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrNotFound           = errors.New("user_not_found")
)
