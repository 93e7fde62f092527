package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNew_RetryableDetection(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		retryable bool
	}{
		{ErrCodeTimeout, true},
		{ErrCodeServiceUnavailable, true},
		{ErrCodeNotFound, false},
		{ErrCodeInternal, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			err := New(tc.code, "msg", http.StatusTeapot)
			if err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v for %s", tc.retryable, tc.code)
			}
			if err.HTTPStatus != http.StatusTeapot {
				t.Errorf("expected status %d, got %d", http.StatusTeapot, err.HTTPStatus)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("update stream", "/demo")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %d", err.HTTPStatus)
	}
	if err.Details["id"] != "/demo" {
		t.Errorf("expected id=/demo, got %v", err.Details["id"])
	}

	noID := NotFound("page", "")
	if _, ok := noID.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	err := MethodNotAllowed(http.MethodDelete)
	if err.HTTPStatus != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", err.HTTPStatus)
	}
	if !strings.Contains(err.Message, "DELETE") {
		t.Errorf("expected method in message, got %q", err.Message)
	}
}

func TestPayloadTooLarge(t *testing.T) {
	err := PayloadTooLarge(1024)
	if err.HTTPStatus != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", err.HTTPStatus)
	}
	if err.Details["limit"] != int64(1024) {
		t.Errorf("expected limit detail, got %v", err.Details["limit"])
	}
}

func TestInternal_WrapsCause(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := Internal(cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected Internal to unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "disk on fire") {
		t.Errorf("expected cause in Error(), got %q", err.Error())
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", InvalidInput("title", "too long"))
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to find wrapped AppError")
	}
	if appErr.Details["field"] != "title" {
		t.Errorf("expected field=title, got %v", appErr.Details["field"])
	}

	if _, ok := AsAppError(stderrors.New("plain")); ok {
		t.Error("expected plain error not to convert")
	}
}

func TestToResponse(t *testing.T) {
	resp := ServiceUnavailable("registry").ToResponse()
	if resp.Error.Code != ErrCodeServiceUnavailable {
		t.Errorf("expected code SERVICE_UNAVAILABLE, got %s", resp.Error.Code)
	}
	if !resp.Error.Retryable {
		t.Error("expected retryable in response body")
	}
	if resp.Error.Details["service"] != "registry" {
		t.Errorf("expected service detail, got %v", resp.Error.Details)
	}
}

func TestWithDetail(t *testing.T) {
	err := Validation("bad").WithDetail("path", "/x")
	if err.Details["path"] != "/x" {
		t.Errorf("expected detail path=/x, got %v", err.Details)
	}
}
