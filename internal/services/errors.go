package services

import (
	"errors"
	"fmt"
)

// Validation failures of the record pipeline. Each is terminal and
// non-retryable with the same payload.
var (
	ErrInvalidToken          = errors.New("invalid play token")
	ErrSubmittedTooEarly     = errors.New("record submitted before the chart could have been finished")
	ErrChecksumMismatch      = errors.New("chart file checksum mismatch")
	ErrSignatureMismatch     = errors.New("play signature mismatch")
	ErrJudgmentCountMismatch = errors.New("judgment counts do not sum to the chart note count")
	ErrMaxComboOutOfRange    = errors.New("max combo outside the achievable range")
)

// NotFoundError identifies which referenced entity is missing
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}
