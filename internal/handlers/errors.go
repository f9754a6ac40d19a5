package handlers

import (
	"errors"
	"net/http"

	"stockledger/internal/common"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HTTPErrorHandler renders every unhandled error with the common error envelope.
func HTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			message := http.StatusText(httpErr.Code)
			if m, ok := httpErr.Message.(string); ok {
				message = m
			}
			code := "HTTP_ERROR"
			if httpErr.Code == http.StatusNotFound {
				code = string(common.KindNotFound)
			}
			if writeErr := c.JSON(httpErr.Code, common.CreateErrorResponse(code, message, nil)); writeErr != nil {
				logger.Warn("failed to write error response", zap.Error(writeErr))
			}
			return
		}

		if appErr := common.AsAppError(err); appErr.Kind == common.KindInternal {
			logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}
		if writeErr := common.SendAppError(c, err); writeErr != nil {
			logger.Warn("failed to write error response", zap.Error(writeErr))
		}
	}
}
