package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"eicrcore/internal/core"
	"eicrcore/internal/extract"
	"eicrcore/internal/presets"
	"eicrcore/internal/session"
	"eicrcore/pkg/domain"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	var he *echo.HTTPError
	var nf core.ErrNotFound
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, session.ErrCircuitNotFound), errors.Is(err, presets.ErrNotFound), errors.As(err, &nf):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrImmutableField),
		errors.Is(err, extract.ErrMalformed),
		errors.Is(err, session.ErrConfirmationRequired),
		errors.Is(err, core.ErrUnknownBulkOp):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNothingToUndo):
		return http.StatusConflict
	case errors.Is(err, core.ErrArchiveDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, core.ErrServiceClosed), errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (c *Controller) errorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}
	code := StatusFor(err)
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok {
			message = m
		}
	}
	if code >= http.StatusInternalServerError && code != http.StatusNotImplemented {
		c.logger.Error("api error", zap.String("path", ctx.Request().URL.Path), zap.Error(err))
	}
	resp := ErrorResponse{
		Error:     err.Error(),
		Message:   message,
		Code:      code,
		RequestID: ctx.Response().Header().Get(echo.HeaderXRequestID),
	}
	if ctx.Request().Method == http.MethodHead {
		_ = ctx.NoContent(code)
		return
	}
	_ = ctx.JSON(code, resp)
}
