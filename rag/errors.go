package rag

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when a bot lookup is ownership-checked and the
// requesting user does not own the bot.
var ErrForbidden = errors.New("not authorized for this bot")

// ValidationError marks bad caller input; it stops the pipeline before any
// collaborator is called.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StoreError marks a similarity-search or persistence failure. These are
// never swallowed and surface to the caller as server errors.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
