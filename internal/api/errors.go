package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalfonso89/currency-converter/internal/convert"
	"github.com/dalfonso89/currency-converter/internal/rates"
	"github.com/dalfonso89/currency-converter/internal/session"
)

var errInvalidBody = errors.New("invalid request body")

// classifyError returns the status code and short message for an error
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, errInvalidBody),
		errors.Is(err, rates.ErrInvalidDate),
		errors.Is(err, rates.ErrDateOutOfRange),
		errors.Is(err, convert.ErrInvalidAmount),
		errors.Is(err, convert.ErrInvalidDirection):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, convert.ErrUnknownCurrency),
		errors.Is(err, convert.ErrInvalidRate):
		return http.StatusUnprocessableEntity, "conversion failed"
	case errors.Is(err, session.ErrRowNotFound):
		return http.StatusNotFound, "row not found"
	case errors.Is(err, session.ErrLastRow):
		return http.StatusConflict, "row cannot be removed"
	case errors.Is(err, session.ErrNotReady):
		return http.StatusServiceUnavailable, "rates not loaded"
	case errors.Is(err, rates.ErrFetchFailed):
		return http.StatusBadGateway, "failed to fetch rates"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request cancelled"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
