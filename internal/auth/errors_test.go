package auth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorKind_StatusCode(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want int
	}{
		{KindInvalidCredentials, http.StatusUnauthorized},
		{KindAccountInactive, http.StatusUnauthorized},
		{KindAccountLocked, http.StatusUnauthorized},
		{KindInvalidSession, http.StatusUnauthorized},
		{KindRefreshExpired, http.StatusUnauthorized},
		{KindRefreshConflict, http.StatusUnauthorized},
		{KindSessionNotFound, http.StatusBadRequest},
		{KindInvalidToken, http.StatusUnauthorized},
		{KindTokenExpired, http.StatusUnauthorized},
		{KindPersistence, http.StatusInternalServerError},
		{KindEntropyUnavailable, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.StatusCode(); got != tt.want {
				t.Errorf("StatusCode() = %d, want %d", got, tt.want)
			}
			if got := tt.kind.IsServerFault(); got != (tt.want == http.StatusInternalServerError) {
				t.Errorf("IsServerFault() = %v", got)
			}
			if tt.kind.Message() == "" {
				t.Error("expected non-empty message")
			}
		})
	}
}

func TestErrorKind_ServerFaultsShareGenericMessage(t *testing.T) {
	if KindPersistence.Message() != KindEntropyUnavailable.Message() {
		t.Error("server faults should share the generic message")
	}
}

func TestKindOf_WrappedError(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("handler: %w", persistenceError("failed to create session", cause))

	kind, ok := KindOf(err)
	if !ok || kind != KindPersistence {
		t.Errorf("KindOf = %v, %v; want %v, true", kind, ok, KindPersistence)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestKindOf_NonAuthError(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("expected ok=false for non-auth error")
	}
}
