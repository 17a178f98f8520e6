package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Zulfatok/mael/internal/api/metrics"
	"github.com/Zulfatok/mael/internal/api/middleware"
	"github.com/Zulfatok/mael/internal/core/domain"
	"github.com/Zulfatok/mael/internal/core/ports"
)

// AuthHandler handles signup, login, logout and the password-reset flow.
type AuthHandler struct {
	accounts      ports.AccountService
	sessions      ports.SessionService
	resets        ports.ResetService
	sessionTTL    time.Duration
	secureCookies bool
}

func NewAuthHandler(
	accounts ports.AccountService,
	sessions ports.SessionService,
	resets ports.ResetService,
	sessionTTL time.Duration,
	secureCookies bool,
) *AuthHandler {
	return &AuthHandler{
		accounts:      accounts,
		sessions:      sessions,
		resets:        resets,
		sessionTTL:    sessionTTL,
		secureCookies: secureCookies,
	}
}

type signupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=24"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetConfirmRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

// Signup creates a new account and opens a session for it.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.accounts.Signup(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	metrics.SignupsTotal.WithLabelValues(user.Role).Inc()

	token, err := h.sessions.Create(c.Request().Context(), user.ID, h.sessionTTL)
	if err != nil {
		return err
	}
	h.setSessionCookie(c, token)

	return c.JSON(http.StatusCreated, userResponse{User: user})
}

// Login authenticates by email and password and opens a session.
//
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failed").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("ok").Inc()

	token, err := h.sessions.Create(c.Request().Context(), user.ID, h.sessionTTL)
	if err != nil {
		return err
	}
	h.setSessionCookie(c, token)

	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Logout revokes the current session and clears the cookie.
//
// @Summary      Log out
// @Tags         auth
// @Success      204  "session revoked"
// @Router       /v1/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(middleware.SessionCookieName); err == nil {
		if err := h.sessions.Destroy(c.Request().Context(), cookie.Value); err != nil {
			return err
		}
	}
	h.clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user.
//
// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// ResetRequest starts a password reset. The response is identical whether or
// not the address is registered.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetRequest  true  "Account email"
// @Success      202   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Router       /v1/auth/reset [post]
func (h *AuthHandler) ResetRequest(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.resets.Request(c.Request().Context(), req.Email); err != nil {
		return err
	}
	metrics.ResetRequestsTotal.Inc()

	return c.JSON(http.StatusAccepted, map[string]string{"status": "ok"})
}

// ResetConfirm consumes a reset token and sets the new password.
//
// @Summary      Confirm a password reset
// @Tags         auth
// @Accept       json
// @Param        body  body  resetConfirmRequest  true  "Token and new password"
// @Success      204   "password updated"
// @Failure      400   {object}  map[string]string
// @Router       /v1/auth/reset/confirm [post]
func (h *AuthHandler) ResetConfirm(c echo.Context) error {
	var req resetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.resets.Confirm(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // serialized as Max-Age=0
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
