package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

type stubAuthService struct {
	registerFn    func(ctx context.Context, username, password string) (*domain.User, error)
	loginFn       func(ctx context.Context, username, password string) (*ports.LoginResult, error)
	assignAdminFn func(ctx context.Context, userID int64) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return s.registerFn(ctx, username, password)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) AssignAdmin(ctx context.Context, userID int64) (*domain.User, error) {
	return s.assignAdminFn(ctx, userID)
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, username, password string) (*domain.User, error) {
			if username != "alice" || password != "pw1" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return &domain.User{ID: 1, Username: username}, nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(newJSONRequest(http.MethodPost, "/api/auth/register", `{"username":"alice","password":"pw1"}`), rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp messageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Message == "" {
		t.Fatalf("expected confirmation message")
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, username, password string) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	handler := NewAuthHandler(stub)

	c := e.NewContext(newJSONRequest(http.MethodPost, "/api/auth/register", `{"username":"bob","password":"x"}`), httptest.NewRecorder())

	if err := handler.Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, username, password string) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	for _, body := range []string{"not-json", `{"username":"bob"}`, `{"password":"x"}`} {
		c := e.NewContext(newJSONRequest(http.MethodPost, "/api/auth/register", body), httptest.NewRecorder())
		expectHTTPError(t, handler.Register(c), http.StatusBadRequest)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*ports.LoginResult, error) {
			if username != "alice" || password != "pw1" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return &ports.LoginResult{Token: "token123", User: &domain.User{ID: 1, Username: "alice"}}, nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(newJSONRequest(http.MethodPost, "/api/auth/login", `{"username":"alice","password":"pw1"}`), rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
	if resp["isAdmin"] != false {
		t.Fatalf("expected isAdmin=false, got %v", resp["isAdmin"])
	}
	if _, leaked := resp["user"]; leaked {
		t.Fatalf("login response must not carry the user record")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*ports.LoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub)

	c := e.NewContext(newJSONRequest(http.MethodPost, "/api/auth/login", `{"username":"alice","password":"bad"}`), httptest.NewRecorder())

	if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*ports.LoginResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	c := e.NewContext(newJSONRequest(http.MethodPost, "/api/auth/login", "{"), httptest.NewRecorder())
	expectHTTPError(t, handler.Login(c), http.StatusBadRequest)
}

func TestAuthHandler_AssignAdmin(t *testing.T) {
	e := newEcho()
	var got int64
	stub := &stubAuthService{
		assignAdminFn: func(ctx context.Context, userID int64) (*domain.User, error) {
			got = userID
			if userID == 99 {
				return nil, domain.ErrUserNotFound
			}
			return &domain.User{ID: userID, Permissions: domain.PermAdmin}, nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/assign-admin?userId=7", nil), rec)
	if err := handler.AssignAdmin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || got != 7 {
		t.Fatalf("expected 200 for user 7, got %d for %d", rec.Code, got)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/assign-admin?userId=99", nil), httptest.NewRecorder())
	if err := handler.AssignAdmin(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthHandler_AssignAdmin_BadUserID(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{
		assignAdminFn: func(ctx context.Context, userID int64) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	})

	for _, q := range []string{"", "?userId=abc", "?userId=0", "?userId=-3"} {
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/assign-admin"+q, nil), httptest.NewRecorder())
		expectHTTPError(t, handler.AssignAdmin(c), http.StatusBadRequest)
	}
}
