package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/hrygo/studyplan/server/internal/errors"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func errorResponse(c echo.Context, err error) error {
	var planErr *apperrors.PlanError
	if !errors.As(err, &planErr) {
		planErr = apperrors.Internal("unexpected error", err)
	}

	status := planErr.HTTPStatus()
	resp := ErrorResponse{Code: string(planErr.Code), Message: planErr.Message}
	if planErr.Cause != nil && status < http.StatusInternalServerError {
		resp.Detail = planErr.Cause.Error()
	}
	if status >= http.StatusInternalServerError {
		slog.Error("api request failed", "path", c.Path(), "error", err)
	}
	return c.JSON(status, resp)
}

func badRequest(c echo.Context, msg string, cause error) error {
	return errorResponse(c, apperrors.InvalidArgument(msg, cause))
}
