package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/vinyltrader/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Overflow *OverflowDetails `json:"overflow,omitempty"`
}

// OverflowDetails tells the client what confirming an overflow would cost
type OverflowDetails struct {
	Cost      int `json:"cost"`
	Remaining int `json:"remaining"`
	Overflow  int `json:"overflow"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Codes that do not come from a model error
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeOverflowRequired = "OVERFLOW_REQUIRED"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// StatusOf returns the status code WriteError would use
func StatusOf(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var oe *model.OverflowRequiredError
	if errors.As(err, &oe) {
		return &httpError{http.StatusConflict, APIError{
			Code:    CodeOverflowRequired,
			Message: oe.Error(),
			Overflow: &OverflowDetails{
				Cost:      oe.Decision.Cost,
				Remaining: oe.Decision.Remaining,
				Overflow:  oe.Decision.Overflow,
			},
		}}
	}

	var de *model.Error
	if !errors.As(err, &de) {
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}

	// Keep any detail added with %w
	apiErr := APIError{Code: de.Code, Message: err.Error()}
	switch {
	case errors.Is(err, model.ErrNotHost):
		return &httpError{http.StatusForbidden, apiErr}
	case errors.Is(err, model.ErrGameInProgress), errors.Is(err, model.ErrTurnEnded):
		return &httpError{http.StatusConflict, apiErr}
	}

	switch de.Kind {
	case model.KindValidation:
		return &httpError{http.StatusBadRequest, apiErr}
	case model.KindNotFound:
		return &httpError{http.StatusNotFound, apiErr}
	case model.KindConflict:
		return &httpError{http.StatusConflict, apiErr}
	case model.KindDomainRule:
		return &httpError{http.StatusUnprocessableEntity, apiErr}
	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewNotFoundError creates a 404 for unknown routes
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{Code: CodeNotFound, Message: "Not found"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}
