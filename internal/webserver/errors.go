package webserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// StatusCode maps an HTTP status to the envelope error code.
func StatusCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "INTERNAL_ERROR"
	}
}

// ErrorHandler renders errors that escape handlers, including echo's own
// routing and middleware errors, in the API envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	resp := ErrorResponse{Error: "INTERNAL_ERROR", Message: "Internal server error"}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		resp.Error = StatusCode(status)
		resp.Message = fmt.Sprint(he.Message)
	} else {
		zap.L().Error("unhandled error",
			zap.String("namespace", "http"),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err))
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, resp)
	}
	if werr != nil {
		zap.L().Error("error response write failed", zap.Error(werr))
	}
}
