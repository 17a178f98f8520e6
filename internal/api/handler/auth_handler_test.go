package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Zulfatok/mael/internal/api/middleware"
	"github.com/Zulfatok/mael/internal/core/domain"
)

type stubAccounts struct {
	signupFn func(ctx context.Context, username, email, password string) (*domain.User, error)
	loginFn  func(ctx context.Context, email, password string) (*domain.User, error)
	limits   map[string]int
	disabled map[string]bool
}

func (s *stubAccounts) Signup(ctx context.Context, username, email, password string) (*domain.User, error) {
	return s.signupFn(ctx, username, email, password)
}

func (s *stubAccounts) Login(ctx context.Context, email, password string) (*domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAccounts) Get(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubAccounts) SetAliasLimit(_ context.Context, userID string, limit int) error {
	if s.limits == nil {
		s.limits = make(map[string]int)
	}
	s.limits[userID] = limit
	return nil
}

func (s *stubAccounts) SetDisabled(_ context.Context, userID string, disabled bool) error {
	if s.disabled == nil {
		s.disabled = make(map[string]bool)
	}
	s.disabled[userID] = disabled
	return nil
}

type stubSessions struct {
	created   []string // user ids
	destroyed []string // raw tokens
}

func (s *stubSessions) Create(_ context.Context, userID string, _ time.Duration) (string, error) {
	s.created = append(s.created, userID)
	return "raw-session-token", nil
}

func (s *stubSessions) Resolve(context.Context, string) (*domain.User, error) { return nil, nil }

func (s *stubSessions) Destroy(_ context.Context, rawToken string) error {
	s.destroyed = append(s.destroyed, rawToken)
	return nil
}

func (s *stubSessions) SweepExpired(context.Context, time.Time) (int64, error) { return 0, nil }

type stubResets struct {
	requested []string
	confirmFn func(ctx context.Context, rawToken, newPassword string) error
}

func (s *stubResets) Request(_ context.Context, email string) error {
	s.requested = append(s.requested, email)
	return nil
}

func (s *stubResets) Confirm(ctx context.Context, rawToken, newPassword string) error {
	if s.confirmFn != nil {
		return s.confirmFn(ctx, rawToken, newPassword)
	}
	return nil
}

func (s *stubResets) SweepExpired(context.Context, time.Time) (int64, error) { return 0, nil }

func newAuthContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	res := rec.Result()
	for _, cookie := range res.Cookies() {
		if cookie.Name == middleware.SessionCookieName {
			return cookie
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func TestAuthHandler_Signup_SetsCookie(t *testing.T) {
	accounts := &stubAccounts{
		signupFn: func(_ context.Context, username, email, _ string) (*domain.User, error) {
			return &domain.User{ID: "u1", Username: username, Email: email, Role: domain.RoleAdmin}, nil
		},
	}
	sessions := &stubSessions{}
	h := NewAuthHandler(accounts, sessions, &stubResets{}, time.Hour, false)

	c, rec := newAuthContext(t, http.MethodPost, "/v1/auth/signup",
		`{"username":"alice","email":"alice@example.com","password":"correct horse"}`)
	if err := h.Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if len(sessions.created) != 1 || sessions.created[0] != "u1" {
		t.Fatalf("expected session created for u1, got %v", sessions.created)
	}

	cookie := sessionCookie(t, rec)
	if cookie.Value != "raw-session-token" {
		t.Fatalf("cookie value: %q", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Fatalf("cookie must be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie must be SameSite=Lax, got %v", cookie.SameSite)
	}
	if cookie.Path != "/" {
		t.Fatalf("cookie path: %q", cookie.Path)
	}
	if cookie.MaxAge != 3600 {
		t.Fatalf("cookie max-age: %d", cookie.MaxAge)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["username"] != "alice" {
		t.Fatalf("unexpected payload: %v", resp)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password material leaked into response")
	}
}

func TestAuthHandler_Signup_InvalidPayload(t *testing.T) {
	h := NewAuthHandler(&stubAccounts{}, &stubSessions{}, &stubResets{}, time.Hour, false)

	c, _ := newAuthContext(t, http.MethodPost, "/v1/auth/signup",
		`{"username":"alice","email":"not-an-email","password":"correct horse"}`)
	err := h.Signup(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Login_FailurePropagates(t *testing.T) {
	accounts := &stubAccounts{
		loginFn: func(context.Context, string, string) (*domain.User, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	sessions := &stubSessions{}
	h := NewAuthHandler(accounts, sessions, &stubResets{}, time.Hour, false)

	c, _ := newAuthContext(t, http.MethodPost, "/v1/auth/login",
		`{"email":"alice@example.com","password":"wrong"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(sessions.created) != 0 {
		t.Fatalf("no session may be created on failed login")
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	sessions := &stubSessions{}
	h := NewAuthHandler(&stubAccounts{}, sessions, &stubResets{}, time.Hour, false)

	c, rec := newAuthContext(t, http.MethodPost, "/v1/auth/logout", "")
	c.Request().AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "raw-session-token"})

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(sessions.destroyed) != 1 || sessions.destroyed[0] != "raw-session-token" {
		t.Fatalf("session not destroyed: %v", sessions.destroyed)
	}

	cookie := sessionCookie(t, rec)
	if cookie.Value != "" || cookie.MaxAge != -1 {
		t.Fatalf("cookie not cleared: value=%q max-age=%d", cookie.Value, cookie.MaxAge)
	}
}

func TestAuthHandler_Logout_NoCookie(t *testing.T) {
	sessions := &stubSessions{}
	h := NewAuthHandler(&stubAccounts{}, sessions, &stubResets{}, time.Hour, false)

	c, rec := newAuthContext(t, http.MethodPost, "/v1/auth/logout", "")
	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(sessions.destroyed) != 0 {
		t.Fatalf("nothing to destroy without a cookie")
	}
}

func TestAuthHandler_ResetRequest_AlwaysAccepted(t *testing.T) {
	resets := &stubResets{}
	h := NewAuthHandler(&stubAccounts{}, &stubSessions{}, resets, time.Hour, false)

	c, rec := newAuthContext(t, http.MethodPost, "/v1/auth/reset",
		`{"email":"whoever@example.com"}`)
	if err := h.ResetRequest(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(resets.requested) != 1 {
		t.Fatalf("reset not requested")
	}
}

func TestAuthHandler_ResetConfirm(t *testing.T) {
	resets := &stubResets{
		confirmFn: func(_ context.Context, rawToken, newPassword string) error {
			if rawToken != "tok" || newPassword != "fresh password" {
				t.Fatalf("unexpected args: %q %q", rawToken, newPassword)
			}
			return nil
		},
	}
	h := NewAuthHandler(&stubAccounts{}, &stubSessions{}, resets, time.Hour, false)

	c, rec := newAuthContext(t, http.MethodPost, "/v1/auth/reset/confirm",
		`{"token":"tok","password":"fresh password"}`)
	if err := h.ResetConfirm(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
