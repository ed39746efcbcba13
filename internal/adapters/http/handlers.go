package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mobilize/core/internal/domain/entities"
	"github.com/mobilize/core/internal/infrastructure/jsonstore"
	"github.com/mobilize/core/internal/infrastructure/logger"
	"github.com/mobilize/core/internal/ports"
)

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// bind decodes and validates the request body into req
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return nil
}

// failure logs a service error and maps it to an HTTP error
func failure(log *logger.Logger, msg string, err error, fields ...interface{}) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, entities.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, entities.ErrAlreadyExists):
		code = http.StatusConflict
	case errors.Is(err, entities.ErrInvalidAmount), errors.Is(err, entities.ErrInvalidOperation):
		code = http.StatusBadRequest
	case errors.Is(err, entities.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, jsonstore.ErrClosed):
		code = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		code = http.StatusServiceUnavailable
	}

	fields = append(fields, "error", err)
	if code >= http.StatusInternalServerError {
		log.Errorw(msg, fields...)
		return echo.NewHTTPError(code, msg).SetInternal(err)
	}

	log.Warnw(msg, fields...)
	return echo.NewHTTPError(code, rootMessage(err))
}

func rootMessage(err error) string {
	for _, sentinel := range []error{
		entities.ErrFlowNotFound,
		entities.ErrBoycottNotFound,
		entities.ErrRICNotFound,
		entities.ErrMissionNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// AuthHandler handles operator authentication requests
type AuthHandler struct {
	authService ports.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService ports.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login handles operator login
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	response, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		h.logger.LogAuthEvent("login_failed", c.RealIP())
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	return c.JSON(http.StatusOK, response)
}
