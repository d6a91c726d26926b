package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Failure kinds recorded alongside failed runs.
const (
	KindValidation    = "validation"
	KindConfiguration = "configuration"
	KindNotFound      = "not_found"
	KindExternalTool  = "external_tool"
	KindTimeout       = "timeout"
	KindCanceled      = "canceled"
	KindTransient     = "transient"
)

// classes is checked in order; the first match wins.
var classes = []struct {
	markers   []error
	kind      string
	retryable bool
}{
	{[]error{ErrValidation}, KindValidation, false},
	{[]error{ErrConfiguration}, KindConfiguration, false},
	{[]error{ErrNotFound}, KindNotFound, false},
	{[]error{ErrTimeout, context.DeadlineExceeded}, KindTimeout, true},
	{[]error{context.Canceled}, KindCanceled, true},
	{[]error{ErrExternalTool}, KindExternalTool, true},
}

// Wrap tags err with marker and prefixes it with whichever of step, operation,
// and message are non-blank. A nil marker means ErrTransient.
func Wrap(marker error, step, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	var parts []string
	for _, part := range []string{step, operation, message} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	detail := "service failure"
	if len(parts) > 0 {
		detail = strings.Join(parts, ": ")
	}
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

// FailureKind maps an error to the kind persisted in the run ledger.
func FailureKind(err error) string {
	kind, _ := classify(err)
	return kind
}

// Retryable reports whether rerunning with --resume may succeed without
// changing inputs or configuration.
func Retryable(err error) bool {
	_, retryable := classify(err)
	return retryable
}

func classify(err error) (string, bool) {
	for _, class := range classes {
		for _, marker := range class.markers {
			if errors.Is(err, marker) {
				return class.kind, class.retryable
			}
		}
	}
	return KindTransient, true
}
