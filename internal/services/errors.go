package services

import (
	"errors"
	"fmt"
	"strings"
)

// Error markers classify pipeline failures. Every marker except
// ErrConfiguration is contained at the item or stage level.
var (
	ErrFetch          = errors.New("fetch failure")
	ErrParseSkip      = errors.New("parse skip")
	ErrPersistence    = errors.New("persistence error")
	ErrClassification = errors.New("classification error")
	ErrConfiguration  = errors.New("configuration error")
	ErrValidation     = errors.New("validation error")
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

// IsFatal reports whether err must stop a cycle before it starts.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// Kind returns a short label for the marker carried by err, for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrParseSkip):
		return "parse_skip"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrClassification):
		return "classification"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "unknown"
	}
}

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
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
