package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/taskman/internal/model"
)

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	registerFn func(ctx context.Context, fullName, username, password string) (*userResponse, error)
}

func (m *mockUserService) Register(ctx context.Context, fullName, username, password string) (*userResponse, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, fullName, username, password)
	}
	return nil, errors.New("not implemented")
}

func TestUserHandler_Register_Success(t *testing.T) {
	svc := &mockUserService{
		registerFn: func(_ context.Context, fullName, username, password string) (*userResponse, error) {
			if fullName != "Alice Liddell" || username != "alice" || password != "pw" {
				t.Errorf("Register(%q, %q, %q)", fullName, username, password)
			}
			return &userResponse{UserID: 3, FullName: fullName, Username: username}, nil
		},
	}

	w := httptest.NewRecorder()
	NewUserHandler(svc).Register(w, jsonRequest(http.MethodPost, "/v1/users",
		`{"fullname":"Alice Liddell","username":"alice","password":"pw"}`))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	env := decodeEnvelope(t, w)
	if !hasMessage(env.Messages, "User created") {
		t.Errorf("messages = %v", env.Messages)
	}
	var data map[string]any
	decodeData(t, env, &data)
	if data["user_id"] != float64(3) || data["username"] != "alice" || data["fullname"] != "Alice Liddell" {
		t.Errorf("data = %v", data)
	}
	if _, ok := data["password"]; ok {
		t.Error("response must not contain password")
	}
}

func TestUserHandler_Register_MissingFields(t *testing.T) {
	w := httptest.NewRecorder()
	NewUserHandler(&mockUserService{}).Register(w, jsonRequest(http.MethodPost, "/v1/users", `{"username":"alice"}`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	env := decodeEnvelope(t, w)
	if !hasMessage(env.Messages, "Fullname not provided") || !hasMessage(env.Messages, "Password not provided") {
		t.Errorf("messages = %v", env.Messages)
	}
	if hasMessage(env.Messages, "Username not provided") {
		t.Errorf("messages = %v, username was provided", env.Messages)
	}
}

func TestUserHandler_Register_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"ユーザー名重複", model.NewUsernameTakenError(), http.StatusConflict},
		{"検証エラー", model.NewValidationError("Username cannot be blank"), http.StatusBadRequest},
		{"内部エラー", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUserService{
				registerFn: func(context.Context, string, string, string) (*userResponse, error) {
					return nil, tt.err
				},
			}
			w := httptest.NewRecorder()
			NewUserHandler(svc).Register(w, jsonRequest(http.MethodPost, "/v1/users",
				`{"fullname":"A","username":"a","password":"p"}`))

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if env := decodeEnvelope(t, w); env.Success {
				t.Error("success should be false")
			}
		})
	}
}
