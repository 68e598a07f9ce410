package client

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gophboard/internal/common"
)

// APIError is a non-2xx API response. It unwraps to one of the
// common error kinds so callers can match with errors.Is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api error: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return kindForStatus(e.StatusCode)
}

func kindForStatus(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return common.ErrUnauthenticated
	case http.StatusForbidden:
		return common.ErrAuthorization
	case http.StatusNotFound, http.StatusGone:
		return common.ErrNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return common.ErrValidation
	default:
		return common.ErrNetwork
	}
}
