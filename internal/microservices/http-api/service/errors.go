package service

import (
	"errors"
	"fmt"

	"mapportal/internal/microservices/http-api/repository"

	"gorm.io/gorm"
)

// Error kinds surfaced to the HTTP layer. Services wrap them with detail, so
// callers match with errors.Is.
var (
	ErrNotFound        = errors.New("not_found")
	ErrInvalidArgument = errors.New("invalid_argument")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrStorage         = errors.New("storage_failure")
)

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s not found", ErrNotFound, what)
}

// storageError classifies a repository error. Missing rows become ErrNotFound
// (for what, unless the repository named the missing row), unique violations ErrConflict and the rest ErrStorage.
func storageError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrUserNotFound):
		return notFound("user")
	case errors.Is(err, repository.ErrMapNotFound):
		return notFound("map")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(what)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	default:
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
}
