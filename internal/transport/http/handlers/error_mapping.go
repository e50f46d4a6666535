package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/transport/http/middleware"
	"github.com/arklim/campus-records/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
// An empty Message echoes the error text, which is how conflict and
// validation errors name the offending field.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil || !errors.Is(err, cs.Err) {
			continue
		}
		resp := NewErrorResponse(c, cs.Message)
		if cs.Message == "" {
			resp.Error, resp.Field = describe(err)
		}
		c.JSON(cs.Status, resp)
		return
	}

	_ = c.Error(err)
	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}

// recordErrorCases is the mapping shared by every record endpoint.
var recordErrorCases = []ErrorCase{
	{Err: domain.ErrAccessDenied, Status: http.StatusForbidden, Message: "access denied"},
	{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: "record not found"},
	{Err: domain.ErrConflict, Status: http.StatusConflict},
	{Err: domain.ErrValidation, Status: http.StatusBadRequest},
	{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
	{Err: usecase.ErrInactiveAccount, Status: http.StatusUnauthorized, Message: "account is not active"},
	{Err: usecase.ErrInvalidSession, Status: http.StatusUnauthorized, Message: "invalid or expired session"},
}

func respondRecordError(c *gin.Context, err error) {
	var rateErr *usecase.RateLimitExceededError
	if errors.As(err, &rateErr) {
		respondRateLimitExceeded(c, rateErr)
		return
	}
	RespondWithMappedError(c, err, recordErrorCases, http.StatusInternalServerError, "internal server error")
}

func describe(err error) (string, string) {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return conflict.Error(), string(conflict.Field)
	}
	var invalid *domain.ValidationError
	if errors.As(err, &invalid) {
		return invalid.Error(), invalid.Field
	}
	return err.Error(), ""
}

func respondRateLimitExceeded(c *gin.Context, rateErr *usecase.RateLimitExceededError) {
	seconds := middleware.RetryAfterSeconds(rateErr.RetryAfter)
	c.Header("Retry-After", fmt.Sprint(seconds))

	detail := "Too many login attempts. Try again later."
	if seconds > 0 {
		detail = fmt.Sprintf("Too many login attempts. Try again in %d seconds.", seconds)
	}

	c.JSON(http.StatusTooManyRequests, middleware.ProblemDetails{
		Type:       "https://records.campus.example/errors/login-rate-limit-exceeded",
		Title:      "Rate Limit Exceeded",
		Status:     http.StatusTooManyRequests,
		Detail:     detail,
		Instance:   c.Request.URL.Path,
		RetryAfter: seconds,
		TraceID:    middleware.GetTraceID(c),
	})
}

// bindError turns a binding failure into a 400 naming the payload.
func bindError(c *gin.Context, what string, err error) {
	resp := NewErrorResponse(c, fmt.Sprintf("invalid %s payload", what))
	resp.Field = bindingField(err)
	c.JSON(http.StatusBadRequest, resp)
}

func bindingField(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fieldErrs[0].Field()
	}
	return ""
}
