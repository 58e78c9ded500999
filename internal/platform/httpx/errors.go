package httpx

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the handler layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrValidation = errors.New("validation failed")
)

// WrapValidation tags an error as a caller mistake so RespondError and the
// handlers map it to 400.
func WrapValidation(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// RespondError maps sentinel errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
