package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGeneration marks a generator failure: an external call failed or
	// produced output that could not be turned into an update envelope.
	ErrGeneration = errors.New("generation error")
	// ErrValidation marks a rejected mutation, such as an out-of-range scene
	// index or an oversized inline value.
	ErrValidation = errors.New("validation error")
	// ErrStorage marks an artifact or session store I/O failure.
	ErrStorage = errors.New("storage error")
	// ErrNotFound marks a lookup of something that does not exist, distinct
	// from ErrStorage so callers can tell "absent" from "could not read".
	ErrNotFound = errors.New("not found")
	// ErrSourceUnavailable marks a content source that could not be fetched.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrConfiguration marks unusable configuration discovered at runtime.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks a failure worth retrying at the caller's discretion.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Details returns the human-readable portion of a wrapped error, with the
// sentinel prefix stripped when present.
func Details(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, marker := range []error{
		ErrGeneration, ErrValidation, ErrStorage, ErrNotFound,
		ErrSourceUnavailable, ErrConfiguration, ErrTransient,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
