package user

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no user matches the requested id.
var ErrNotFound = errors.New("user not found")

// User is a clerk operating the register.
type User struct {
	ID   int64
	Name string
	Role string
}

// Repository defines lookup operations for users.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u *User) (int64, error)
}
