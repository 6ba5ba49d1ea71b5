package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/propertypulse/backend/internal/service"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// writeServiceError maps service failures to client payloads without
// leaking internals.
func writeServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "resource not found"))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not allowed"))
	case errors.Is(err, service.ErrInvalidState):
		return c.JSON(http.StatusConflict, NewErrorResponse("invalid_state", err.Error()))
	case errors.Is(err, service.ErrVerificationFailed):
		return c.JSON(http.StatusPaymentRequired, NewErrorResponse("payment_verification_failed", "payment could not be verified"))
	case errors.Is(err, service.ErrPaymentGateway):
		return c.JSON(http.StatusBadGateway, NewErrorResponse("payment_gateway_error", "payment gateway is unavailable"))
	default:
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "unexpected error"))
	}
}
