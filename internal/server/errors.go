package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/reposcribe/reposcribe/internal/auth/domain"
	"github.com/reposcribe/reposcribe/internal/cronjob"
	ghdomain "github.com/reposcribe/reposcribe/internal/github/domain"
	projectdomain "github.com/reposcribe/reposcribe/internal/project/domain"
	"github.com/reposcribe/reposcribe/internal/schedule"
	"github.com/reposcribe/reposcribe/internal/trigger"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var recErr *projectdomain.RecipientsError
	if errors.As(err, &recErr) {
		fields := make([]ValidationError, 0, len(recErr.Invalid)+1)
		if len(recErr.Invalid) == 0 {
			fields = append(fields, ValidationError{
				Field:   "recipients",
				Code:    "empty_recipients",
				Message: "recipients must not be empty",
			})
		}
		for _, addr := range recErr.Invalid {
			fields = append(fields, ValidationError{
				Field:   "recipients",
				Code:    "invalid_recipient",
				Message: addr,
			})
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  fields,
		}
	}

	if isValidationError(err) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(err),
					Code:    validationErrorCode(err),
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked),
		errors.Is(err, authdomain.ErrNoToken),
		errors.Is(err, authdomain.ErrOAuthExchange),
		errors.Is(err, ghdomain.ErrBadToken):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, projectdomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, projectdomain.ErrRunInProgress):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "a run is already in progress",
		}
	case errors.Is(err, ghdomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "upstream rate limit exceeded",
		}
	case isServiceUnavailable(err):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, authdomain.ErrInvalidRequest),
		errors.Is(err, schedule.ErrUnsupportedFrequency),
		errors.Is(err, schedule.ErrInvalidSchedule),
		errors.Is(err, projectdomain.ErrInvalidStatus),
		errors.Is(err, projectdomain.ErrInvalidAutomationType):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, projectdomain.ErrNotFound),
		errors.Is(err, ghdomain.ErrRepositoryNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isServiceUnavailable(err error) bool {
	var transportErr *cronjob.TransportError
	switch {
	case errors.As(err, &transportErr),
		errors.Is(err, trigger.ErrExecutionTrigger),
		errors.Is(err, ghdomain.ErrUpstream):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, schedule.ErrUnsupportedFrequency):
		return "unsupported_frequency"
	case errors.Is(err, schedule.ErrInvalidSchedule):
		return "invalid_schedule"
	case errors.Is(err, projectdomain.ErrInvalidStatus):
		return "invalid_status"
	case errors.Is(err, projectdomain.ErrInvalidAutomationType):
		return "invalid_automation_type"
	default:
		return "invalid_request"
	}
}

func validationErrorField(err error) string {
	switch {
	case errors.Is(err, schedule.ErrUnsupportedFrequency):
		return "frequency"
	case errors.Is(err, schedule.ErrInvalidSchedule):
		return "custom_schedule"
	case errors.Is(err, projectdomain.ErrInvalidStatus):
		return "status"
	case errors.Is(err, projectdomain.ErrInvalidAutomationType):
		return "automation_type"
	default:
		return "request"
	}
}

// classifyErrorForLog feeds the request logger with the mapped error type.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}
