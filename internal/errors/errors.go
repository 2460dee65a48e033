package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory classifies failures along the pipeline's error taxonomy.
// Failures in the optional summarization path never block the mandatory
// scoring path; every category is a describable value, never a crash.
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryInvocation    ErrorCategory = "invocation_failure"
	CategoryMissingOutput ErrorCategory = "missing_output"
	CategorySchema        ErrorCategory = "schema_unresolved"
	CategorySummarization ErrorCategory = "summarization_unavailable"
	CategoryRateLimit     ErrorCategory = "rate_limit"
	CategoryInternal      ErrorCategory = "internal"
)

// AppError wraps an errbuilder error with the category and HTTP status the
// handlers need.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory `json:"category"`
	HTTPStatus int           `json:"http_status"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(e.Category)), e.ErrBuilder.Msg)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// NewAppError creates an AppError from an errbuilder with context.
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewValidationError reports malformed or missing request input.
func NewValidationError(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)
	return NewAppError(builder, CategoryValidation, http.StatusBadRequest)
}

// NewNotFoundError reports an unknown run or resource.
func NewNotFoundError(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(message)
	return NewAppError(builder, CategoryNotFound, http.StatusNotFound)
}

// NewInvocationError reports a scoring process that could not run or exited
// with an error. The diagnostic stream travels in the message so operators
// see what the process printed.
func NewInvocationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeAborted).
		WithMsg(message)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return NewAppError(builder, CategoryInvocation, http.StatusBadGateway)
}

// NewMissingOutputError reports a scoring process that exited cleanly but
// produced no result file; distinct from an invocation failure so "crashed"
// and "silently produced nothing" stay distinguishable.
func NewMissingOutputError(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(message)
	return NewAppError(builder, CategoryMissingOutput, http.StatusBadGateway)
}

// NewSchemaError reports a results table whose mutation or score column
// could not be identified.
func NewSchemaError(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(message)
	return NewAppError(builder, CategorySchema, http.StatusUnprocessableEntity)
}

// NewSummarizationError reports a missing credential or a failed summarizer
// call. This only ever degrades the report text.
func NewSummarizationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(message)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return NewAppError(builder, CategorySummarization, http.StatusBadGateway)
}

// NewRateLimitError reports a throttled client.
func NewRateLimitError(retryAfter time.Duration) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("retry_after", errors.New(retryAfter.String()))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Rate limit exceeded").
		WithDetails(errbuilder.NewErrDetails(errorMap))
	return NewAppError(builder, CategoryRateLimit, http.StatusTooManyRequests)
}

// NewInternalError reports an unexpected server-side failure.
func NewInternalError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(message)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return NewAppError(builder, CategoryInternal, http.StatusInternalServerError)
}

// ToAppError converts any error to an AppError.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	if ebErr, ok := err.(*errbuilder.ErrBuilder); ok {
		return NewAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewSummarizationError("Request deadline exceeded", err)
	}
	if errors.Is(err, context.Canceled) {
		return NewInternalError("Request cancelled", err)
	}
	return NewInternalError("An unexpected error occurred", err)
}

// ErrorHandler is a Gin middleware providing centralized error responses.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			appErr := ToAppError(err)
			LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
		}
	}
}

// RecoveryHandler provides panic recovery with structured error responses.
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		appErr := NewInternalError(
			fmt.Sprintf("Panic recovered: %v", recovered),
			fmt.Errorf("%v", recovered),
		)
		LogError(c, appErr)
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
	})
}

// LogError logs an error with the request context at a level matching its
// category.
func LogError(c *gin.Context, err *AppError) {
	entry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)

	switch err.Category {
	case CategoryValidation, CategoryNotFound, CategoryRateLimit:
		entry.Warn(err.ErrBuilder.Msg)
	case CategorySummarization, CategoryMissingOutput:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			entry.Info(err.ErrBuilder.Msg, "cause", cause)
		} else {
			entry.Info(err.ErrBuilder.Msg)
		}
	default:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			entry.Error(err.ErrBuilder.Msg, "cause", cause)
		} else {
			entry.Error(err.ErrBuilder.Msg)
		}
	}
}
