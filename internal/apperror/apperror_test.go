package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("fetch comment: %w", NotFound("comment"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wrapped error to match ErrNotFound, got %v", err)
	}
	if errors.Is(err, ErrConflict) {
		t.Fatal("did not expect ErrConflict in chain")
	}
}

func TestInternalKeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Internal(cause)

	if err.Error() == cause.Error() {
		t.Fatal("internal error message must not leak the cause")
	}
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause should remain in the chain for logging")
	}
}

func TestValidationFailedCarriesField(t *testing.T) {
	err := ValidationFailed("email", "email is required")

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected *Error")
	}
	if appErr.Field != "email" {
		t.Fatalf("expected field email, got %q", appErr.Field)
	}
	if !errors.Is(err, ErrBadRequest) {
		t.Fatal("validation failures are bad requests")
	}
}
