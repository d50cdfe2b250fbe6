package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Status code mapping used in both directions: outbound responses from the
// local stub server and inbound responses from the remote API.
var codeMapping = map[string]int{
	ErrInternal:        http.StatusInternalServerError,
	ErrNotFound:        http.StatusNotFound,
	ErrInvalidArgument: http.StatusBadRequest,
	ErrUnauthenticated: http.StatusUnauthorized,
	ErrUnauthorized:    http.StatusForbidden,
	ErrConflict:        http.StatusConflict,
	ErrTimeout:         http.StatusGatewayTimeout,
	ErrUnavailable:     http.StatusServiceUnavailable,
	ErrNotImplemented:  http.StatusNotImplemented,
}

// ToHTTPStatus converts an error code into an HTTP status code.
func ToHTTPStatus(code string) int {
	if status, ok := codeMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromHTTPStatus converts an HTTP status code into an internal error code.
func FromHTTPStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrInvalidArgument
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrConflict
	case http.StatusGatewayTimeout:
		return ErrTimeout
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	case http.StatusNotImplemented:
		return ErrNotImplemented
	default:
		return ErrInternal
	}
}

// ToHTTPError converts an error into an Echo HTTP error.
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		return echo.NewHTTPError(ToHTTPStatus(appErr.Code()), appErr.Error())
	}

	if echoErr, ok := err.(*echo.HTTPError); ok {
		return echoErr
	}

	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
