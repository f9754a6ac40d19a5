package common

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// DateLayout is the accepted format for date-only query parameters.
const DateLayout = "2006-01-02"

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code      string            `json:"code"`
		Message   string            `json:"message"`
		Details   map[string]string `json:"details,omitempty"`
		Retryable bool              `json:"retryable,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendAppError renders err using the envelope above and the status of its kind.
// Internal errors never leak their cause to the client.
func SendAppError(c echo.Context, err error) error {
	appErr := AsAppError(err)

	message := appErr.Error()
	if appErr.Kind == KindInternal {
		message = appErr.Message
	}

	resp := CreateErrorResponse(string(appErr.Kind), message, nil)
	resp.Error.Retryable = appErr.Retryable()
	return c.JSON(appErr.StatusCode(), resp)
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse(string(KindValidation), "Validation failed", details))
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, CreateErrorResponse("UNAUTHORIZED", "Unauthorized access", nil))
}

// ValidateUUID parses a required UUID field.
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s is required", fieldName)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid UUID", fieldName)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%s is required", fieldName)
	}

	return id, nil
}

// ValidateOptionalUUID parses a UUID that may be absent.
func ValidateOptionalUUID(idStr string, fieldName string) (*uuid.UUID, error) {
	if strings.TrimSpace(idStr) == "" {
		return nil, nil
	}
	id, err := ValidateUUID(idStr, fieldName)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ValidatePaginationParams validates pagination parameters
func ValidatePaginationParams(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}

	if offset < 0 {
		offset = 0
	}
	if offset > 1000000 {
		return 0, 0, fmt.Errorf("offset cannot exceed 1,000,000")
	}

	return limit, offset, nil
}

// ParseDayRange turns optional YYYY-MM-DD bounds into a half-open UTC interval
// covering whole days: [start 00:00, end+1day 00:00).
func ParseDayRange(start, end string) (*time.Time, *time.Time, error) {
	var from, until *time.Time

	if start != "" {
		t, err := time.Parse(DateLayout, start)
		if err != nil {
			return nil, nil, fmt.Errorf("start_date must be YYYY-MM-DD")
		}
		from = &t
	}
	if end != "" {
		t, err := time.Parse(DateLayout, end)
		if err != nil {
			return nil, nil, fmt.Errorf("end_date must be YYYY-MM-DD")
		}
		t = t.AddDate(0, 0, 1)
		until = &t
	}
	if from != nil && until != nil && !until.After(*from) {
		return nil, nil, fmt.Errorf("end date cannot be before start date")
	}

	return from, until, nil
}
