package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrRemote        = errors.New("remote api error")
	ErrNotFound      = errors.New("not found")
	ErrIntegrity     = errors.New("integrity violation")
	ErrDuplicate     = errors.New("duplicate")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrRemote
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// LocalFatal reports whether an error must abort the enclosing local
// transaction. Remote delivery failures are best-effort and never qualify;
// integrity violations always do.
func LocalFatal(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

// IsRemote reports whether an error originated from an external service call.
func IsRemote(err error) bool {
	return errors.Is(err, ErrRemote)
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
