package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
	ErrCodeTimeout       = "TIMEOUT_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInvalidKind   = "INVALID_KIND"
)

// Side names the upstream system an error came from.
type Side string

const (
	SideStrapi      Side = "strapi"
	SideWooCommerce Side = "woocommerce"
)

// ErrTimeout marks an upstream call that hit its deadline.
var ErrTimeout = errors.New("upstream request timed out")

// TaxonomyError is the error type returned by every layer of the service.
type TaxonomyError struct {
	Code    string
	Message string
	Side    Side
	Status  int // upstream HTTP status, 0 when the call never got an answer
	Details map[string]any
	Err     error
}

func (e *TaxonomyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *TaxonomyError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy carrying extra details.
func (e *TaxonomyError) WithDetails(details map[string]any) *TaxonomyError {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	for k, v := range details {
		cp.Details[k] = v
	}
	return &cp
}

// ========================================
// CONSTRUCTORS
// ========================================

func NewValidationError(message string, details map[string]any) *TaxonomyError {
	return &TaxonomyError{Code: ErrCodeValidation, Message: message, Details: details}
}

func NewConfigurationError(message string) *TaxonomyError {
	return &TaxonomyError{Code: ErrCodeConfiguration, Message: message}
}

func NewUpstreamError(side Side, status int, message string, err error) *TaxonomyError {
	return &TaxonomyError{Code: ErrCodeUpstream, Side: side, Status: status, Message: message, Err: err}
}

func NewTimeoutError(side Side, err error) *TaxonomyError {
	if err == nil {
		err = ErrTimeout
	}
	return &TaxonomyError{
		Code:    ErrCodeTimeout,
		Side:    side,
		Message: fmt.Sprintf("Tiempo de espera agotado al contactar %s", side),
		Err:     fmt.Errorf("%w: %v", ErrTimeout, err),
	}
}

func NewNotFoundError(side Side, message string) *TaxonomyError {
	return &TaxonomyError{Code: ErrCodeNotFound, Side: side, Status: http.StatusNotFound, Message: message}
}

func NewInvalidKind(raw string) *TaxonomyError {
	return &TaxonomyError{Code: ErrCodeInvalidKind, Message: fmt.Sprintf("Tipo de entidad no soportado: %q", raw)}
}

// WithMessage prefixes the message of a TaxonomyError, keeping code and status.
// Other errors become an upstream error on the given side.
func WithMessage(err error, side Side, prefix string) *TaxonomyError {
	var te *TaxonomyError
	if errors.As(err, &te) {
		cp := *te
		cp.Message = prefix + te.Message
		if cp.Side == "" {
			cp.Side = side
		}
		return &cp
	}
	return NewUpstreamError(side, 0, prefix+err.Error(), err)
}

// ========================================
// TERM EXISTS
// ========================================

// TermExistsError is WooCommerce refusing a create because the slug or
// coupon code is already taken. ResourceID points at the existing object.
type TermExistsError struct {
	ResourceID int64
	Code       string
	Message    string
}

func (e *TermExistsError) Error() string {
	return fmt.Sprintf("%s: %s (resource_id=%d)", e.Code, e.Message, e.ResourceID)
}

// AsTermExists extracts a TermExistsError from an error chain.
func AsTermExists(err error) (*TermExistsError, bool) {
	var te *TermExistsError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// ========================================
// HELPERS
// ========================================

func codeOf(err error) string {
	var te *TaxonomyError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

func IsValidationError(err error) bool    { return codeOf(err) == ErrCodeValidation }
func IsConfigurationError(err error) bool { return codeOf(err) == ErrCodeConfiguration }
func IsNotFoundError(err error) bool      { return codeOf(err) == ErrCodeNotFound }
func IsInvalidKind(err error) bool        { return codeOf(err) == ErrCodeInvalidKind }
func IsTimeoutError(err error) bool {
	return codeOf(err) == ErrCodeTimeout || errors.Is(err, ErrTimeout)
}

// IsUpstreamError is true for any failure reported by, or on the way to,
// an upstream system. Timeouts count.
func IsUpstreamError(err error) bool {
	code := codeOf(err)
	return code == ErrCodeUpstream || code == ErrCodeTimeout
}

// MapErrorToHTTP maps a service error to the response status.
func MapErrorToHTTP(err error) int {
	var te *TaxonomyError
	if !errors.As(err, &te) {
		return http.StatusInternalServerError
	}
	switch te.Code {
	case ErrCodeValidation, ErrCodeConfiguration:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeInvalidKind:
		return http.StatusNotFound
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeUpstream:
		if te.Status >= 400 && te.Status < 600 && te.Status != http.StatusNotFound {
			return te.Status
		}
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
