package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrValidation            = errors.New("invalid input")
	ErrInsufficientInventory = errors.New("not enough available animals")
	ErrCannotDelete          = errors.New("linked animals already sold")
	ErrContention            = errors.New("store contention, retry the operation")
	ErrEmailExists           = errors.New("email already registered")

	// ErrKindChange wraps ErrValidation so callers checking for the broad
	// validation class still match.
	ErrKindChange = fmt.Errorf("transaction kind cannot be changed: %w", ErrValidation)
)
