package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for the pipeline's failure taxonomy. Every marker is fatal
// to the run; none is retried automatically. The markers exist so the CLI
// boundary can classify a failure for its exit message without parsing error
// strings.
var (
	ErrConfig           = errors.New("configuration error")
	ErrValidation       = errors.New("sample sheet validation error")
	ErrMissingInput     = errors.New("missing input")
	ErrToolFailure      = errors.New("external tool failure")
	ErrUnresolvedSample = errors.New("unresolved sample")
	ErrArchive          = errors.New("archive error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrToolFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify returns a short label for the failure category, used in the run
// log and the journal. Unknown errors are reported as "failure".
func Classify(err error) string {
	switch {
	case errors.Is(err, ErrConfig):
		return "config"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrMissingInput):
		return "missing_input"
	case errors.Is(err, ErrToolFailure):
		return "tool_failure"
	case errors.Is(err, ErrUnresolvedSample):
		return "unresolved_sample"
	case errors.Is(err, ErrArchive):
		return "archive"
	default:
		return "failure"
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
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
