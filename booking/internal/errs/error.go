package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")

	ErrInvalidInterval = fmt.Errorf("%w: start must be before end", ErrInvalidArgument)
	ErrNotAvailable    = fmt.Errorf("%w: booking not available", ErrConflict)
	ErrAlreadyExists   = fmt.Errorf("%w: already exists", ErrConflict)
)

type ErrorResponse struct {
	Message string `json:"message"`
}
