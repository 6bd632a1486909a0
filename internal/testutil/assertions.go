package testutil

import (
	"errors"
	"testing"

	apperrors "dompet/internal/errors"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) *apperrors.AppError {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
	return appErr
}

// AssertAppErrorDetail checks one entry of an AppError's details map.
func AssertAppErrorDetail(t *testing.T, err error, expectedCode, key string, want any) {
	t.Helper()

	appErr := AssertAppError(t, err, expectedCode)
	got, ok := appErr.Details[key]
	if !ok {
		t.Fatalf("expected detail %q on %s, details: %v", key, expectedCode, appErr.Details)
	}
	if got != want {
		t.Errorf("detail %q = %v (%T), want %v (%T)", key, got, got, want, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
