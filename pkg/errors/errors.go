package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNavigation represents per-listing browser navigation errors
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeStructural represents session-fatal errors (results feed never rendered)
	ErrorTypeStructural ErrorType = "structural"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeStorage represents storage-related errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// CrawlError represents a crawl-specific error. Scope names what failed:
// a listing URL for per-listing errors, a component name otherwise.
type CrawlError struct {
	Type    ErrorType
	Scope   string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *CrawlError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Scope, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Scope, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is worth retrying in place.
// Only navigation errors are: everything else either fails the session
// (structural) or is an expected terminal outcome for its listing.
func (e *CrawlError) IsRetryable() bool {
	return e.Type == ErrorTypeNavigation
}

// New creates a new CrawlError
func New(errType ErrorType, scope, message string, err error) *CrawlError {
	return &CrawlError{
		Type:    errType,
		Scope:   scope,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNavigation creates a new navigation error
func NewNavigation(scope, message string, err error) *CrawlError {
	return New(ErrorTypeNavigation, scope, message, err)
}

// NewStructural creates a new structural error
func NewStructural(scope, message string, err error) *CrawlError {
	return New(ErrorTypeStructural, scope, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(scope, message string, err error) *CrawlError {
	return New(ErrorTypeParsing, scope, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(scope string, duration time.Duration) *CrawlError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, scope, message, nil)
}

// NewStorage creates a new storage error
func NewStorage(scope, message string, err error) *CrawlError {
	return New(ErrorTypeStorage, scope, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(scope, message string, err error) *CrawlError {
	return New(ErrorTypePublisher, scope, message, err)
}

// NewValidation creates a new validation error
func NewValidation(scope, message string) *CrawlError {
	return New(ErrorTypeValidation, scope, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsType reports whether err is a CrawlError of the given type.
func IsType(err error, errType ErrorType) bool {
	var ce *CrawlError
	if errors.As(err, &ce) {
		return ce.Type == errType
	}
	return false
}

// IsStructural reports whether err is fatal to the whole session, as
// opposed to a per-listing failure or a clean zero-result completion.
func IsStructural(err error) bool {
	return IsType(err, ErrorTypeStructural)
}

// IsRateLimit reports whether err means the caller should back off.
func IsRateLimit(err error) bool {
	return IsType(err, ErrorTypeRateLimit)
}

// IsValidation reports whether err was rejected before a session started.
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}
