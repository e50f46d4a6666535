package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/usecase"
)

func serveError(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/students", nil)
	respondRecordError(c, err)

	var resp ErrorResponse
	if w.Code != http.StatusTooManyRequests {
		if decodeErr := json.Unmarshal(w.Body.Bytes(), &resp); decodeErr != nil {
			t.Fatalf("decode %q: %v", w.Body.String(), decodeErr)
		}
	}
	return w, resp
}

func TestRespondRecordErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		field  string
	}{
		{"denied", fmt.Errorf("%w: delete on student", domain.ErrAccessDenied), http.StatusForbidden, ""},
		{"not found", fmt.Errorf("student 7: %w", domain.ErrNotFound), http.StatusNotFound, ""},
		{"conflict", &domain.ConflictError{Kind: domain.KindStudent, Field: domain.FieldRollNumber}, http.StatusConflict, "roll_number"},
		{"validation", &domain.ValidationError{Field: "email", Reason: "must be a valid address"}, http.StatusBadRequest, "email"},
		{"bad credentials", usecase.ErrInvalidCredentials, http.StatusUnauthorized, ""},
		{"storage", &domain.StorageError{Op: "list students", Err: errors.New("connection reset")}, http.StatusInternalServerError, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, resp := serveError(t, tc.err)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			if resp.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, resp.Field)
			}
		})
	}
}

func TestRespondRecordErrorHidesStorageDetails(t *testing.T) {
	_, resp := serveError(t, &domain.StorageError{Op: "list students", Err: errors.New("password=hunter2")})
	if resp.Error != "internal server error" {
		t.Fatalf("storage details leaked: %q", resp.Error)
	}
}

func TestRespondRecordErrorRateLimited(t *testing.T) {
	w, _ := serveError(t, &usecase.RateLimitExceededError{Scope: "login", RetryAfter: 42 * time.Second})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("expected Retry-After 42, got %q", got)
	}
}

func TestBindErrorNamesField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/students", func(c *gin.Context) {
		var req StudentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, "student", err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	body := `{"name":"Ada","roll_number":"R1","email":"not-an-email"}`
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/students", strings.NewReader(body)))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Field != "Email" {
		t.Fatalf("expected Email field, got %q", resp.Field)
	}
}
