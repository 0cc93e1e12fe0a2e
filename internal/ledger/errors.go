package ledger

import (
	"errors"
	"fmt"

	"project-ledger/internal/repository"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("invalid input")
	// ErrConstraintViolation is shared with the store so driver-reported
	// constraint failures and service-side reference checks map the same way.
	ErrConstraintViolation = repository.ErrConstraint
	ErrIntegrity           = errors.New("data integrity error")
)

func notFound(entity string, id int64) error {
	return fmt.Errorf("%s %d %w", entity, id, ErrNotFound)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func missingReference(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d does not exist", ErrConstraintViolation, entity, id)
}

// lookup turns a store miss on an id-keyed read into a typed not-found error.
func lookup(err error, entity string, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(entity, id)
	}
	return err
}
