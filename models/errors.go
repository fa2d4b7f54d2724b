package models

import (
	"errors"
	"fmt"
)

// Error codes used in logs, run reports and internal error handling.
const (
	ErrCodeOverlayNotFound      = "OVERLAY_NOT_FOUND"
	ErrCodeOptionalFieldMissing = "OPTIONAL_FIELD_MISSING"
	ErrCodeRequiredFieldTimeout = "REQUIRED_FIELD_TIMEOUT"
	ErrCodeCartInteraction      = "CART_INTERACTION_FAILED"
	ErrCodeNavigation           = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash         = "BROWSER_CRASH"
	ErrCodeExport               = "EXPORT_FAILED"
	ErrCodeGlobalFailure        = "GLOBAL_FAILURE"
	ErrCodeInvalidInput         = "INVALID_INPUT"
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the outermost ScrapeError in err's chain,
// or "" when there is none.
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsCode reports whether err carries a ScrapeError with the given code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
