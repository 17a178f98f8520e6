package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func agentContext(authHeader string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/ingest", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestAgentAuth_ValidToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"agent": "mta-1",
	})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	c := agentContext("Bearer " + signed)
	called := false
	handler := AgentAuth("secret")(func(c echo.Context) error {
		called = true
		if c.Get("agent") != "mta-1" {
			t.Fatalf("agent claim not set")
		}
		return c.NoContent(http.StatusAccepted)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestAgentAuth_Rejections(t *testing.T) {
	wrongAlg := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"agent": "mta-1"})
	signedWrongAlg, _ := wrongAlg.SignedString([]byte("secret"))

	otherKey := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"agent": "mta-1"})
	signedOtherKey, _ := otherKey.SignedString([]byte("not-the-secret"))

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Token abc"},
		{"garbage token", "Bearer not-a-token"},
		{"wrong algorithm", "Bearer " + signedWrongAlg},
		{"wrong key", "Bearer " + signedOtherKey},
	}
	for _, tc := range cases {
		c := agentContext(tc.header)
		handler := AgentAuth("secret")(func(c echo.Context) error {
			t.Fatalf("%s: should not reach next", tc.name)
			return nil
		})

		err := handler(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %v", tc.name, err)
		}
	}
}
