package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOrdering      = errors.New("ordering violation")
	ErrInvariant     = errors.New("invariant violation")
	ErrUnavailable   = errors.New("collaborator unavailable")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must abort the pipeline invocation. Unavailable
// collaborators degrade locally and never reach this check in practice.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrUnavailable)
}

// OrderingError reports an input stream whose times are not ascending.
type OrderingError struct {
	Stream   string
	Index    int
	Previous float64
	Current  float64
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("%s: %s[%d] at %.3fs precedes %.3fs", ErrOrdering, e.Stream, e.Index, e.Current, e.Previous)
}

func (e *OrderingError) Is(target error) bool { return target == ErrOrdering }

// InvariantError reports a programming-level violation that must never be
// silently corrected.
type InvariantError struct {
	Subject string
	Detail  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvariant, e.Subject, e.Detail)
}

func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "engine failure"
	}
	return strings.Join(parts, ": ")
}
