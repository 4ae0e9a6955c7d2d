package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "error with cause",
			err: &Error{
				Type:    ErrInvalidState,
				Message: "state already consumed",
				Cause:   errors.New("not found"),
			},
			want: "invalid_state: state already consumed: not found",
		},
		{
			name: "error without cause",
			err: &Error{
				Type:    ErrNameConflict,
				Message: "application name already exists",
				Cause:   nil,
			},
			want: "name_conflict: application name already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.want {
				t.Errorf("Error.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewStoreError("redis unavailable", cause)

	if got := err.Unwrap(); got != cause {
		t.Errorf("Error.Unwrap() = %v, want %v", got, cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should match the cause")
	}
}

func TestTypePredicates(t *testing.T) {
	tests := []struct {
		err  error
		pred func(error) bool
		want bool
	}{
		{NewAuthError("bad credentials", nil), IsAuth, true},
		{NewNameConflictError("taken", nil), IsNameConflict, true},
		{NewNotFoundError("missing", nil), IsNotFound, true},
		{NewInvalidRequestError("missing code", nil), IsInvalidRequest, true},
		{NewInvalidStateError("unknown state", nil), IsInvalidState, true},
		{NewUpstreamError("exchange failed", nil), IsUpstream, true},
		{NewStoreError("timeout", nil), IsStore, true},
		{NewAuthError("bad credentials", nil), IsNotFound, false},
		{errors.New("plain"), IsAuth, false},
		{nil, IsAuth, false},
	}

	for i, tt := range tests {
		if got := tt.pred(tt.err); got != tt.want {
			t.Errorf("case %d: predicate = %v, want %v for %v", i, got, tt.want, tt.err)
		}
	}
}

func TestPredicatesMatchWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("handling request: %w", NewNotFoundError("application not found", nil))
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through fmt.Errorf wrapping")
	}
}
