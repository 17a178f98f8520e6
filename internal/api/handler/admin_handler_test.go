package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newAdminContext(t *testing.T, body, userID, field string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPatch, "/v1/admin/users/"+userID+"/"+field, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(userID)
	return c, rec
}

func TestAdminHandler_SetAliasLimit(t *testing.T) {
	accounts := &stubAccounts{}
	h := NewAdminHandler(accounts)

	c, rec := newAdminContext(t, `{"alias_limit":25}`, "u7", "limit")
	if err := h.SetAliasLimit(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if accounts.limits["u7"] != 25 {
		t.Fatalf("limit not applied: %v", accounts.limits)
	}
}

func TestAdminHandler_SetAliasLimit_Validation(t *testing.T) {
	h := NewAdminHandler(&stubAccounts{})

	for _, body := range []string{`{}`, `{"alias_limit":-1}`} {
		c, _ := newAdminContext(t, body, "u7", "limit")
		err := h.SetAliasLimit(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %v", body, err)
		}
	}
}

func TestAdminHandler_SetDisabled(t *testing.T) {
	accounts := &stubAccounts{}
	h := NewAdminHandler(accounts)

	c, rec := newAdminContext(t, `{"disabled":true}`, "u7", "disabled")
	if err := h.SetDisabled(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !accounts.disabled["u7"] {
		t.Fatalf("disabled flag not applied: %v", accounts.disabled)
	}

	// Re-enable: false is a valid value, not a missing field.
	c, rec = newAdminContext(t, `{"disabled":false}`, "u7", "disabled")
	if err := h.SetDisabled(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if accounts.disabled["u7"] {
		t.Fatalf("re-enable not applied: %v", accounts.disabled)
	}
}
