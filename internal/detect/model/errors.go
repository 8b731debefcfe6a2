package model

import (
	"fmt"

	"github.com/cadmatch/detect/internal/detect/detecterr"
)

// errInvariant wraps detecterr.ErrInvariantViolated with a formatted
// message, matching the cascade's policy of surfacing invariant failures
// (never panicking on them).
func errInvariant(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), detecterr.ErrInvariantViolated)
}
