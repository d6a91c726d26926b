package scoring

import (
	"errors"
	"fmt"
)

// ErrContractViolation marks inputs whose shapes or values do not line up.
// These are caller bugs, never transient conditions.
var ErrContractViolation = errors.New("scoring contract violation")

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrContractViolation, fmt.Sprintf(format, args...))
}
