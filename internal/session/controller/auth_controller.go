package controller

import (
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"cumbre/internal/commons"
	"cumbre/internal/dto"
	"cumbre/internal/session"
)

type AuthController struct {
	logger *zap.Logger
}

func NewAuthController(logger *zap.Logger) *AuthController {
	return &AuthController{logger: logger}
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	var req dto.LoginRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	user, err := v.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewSession(user, v.Cart.ItemCount()), logger)
}

func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	var req session.RegisterInput
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	user, err := v.Register(r.Context(), req)
	if err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, dto.NewSession(user, v.Cart.ItemCount()), logger)
}

func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	if err := v.Logout(r.Context()); err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewSession(nil, 0), logger)
}

// Me reports the current session. refresh=true re-reads the profile from the
// backend.
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	user := v.Session.CurrentUser()
	if user != nil && r.URL.Query().Get("refresh") == "true" {
		refreshed, err := v.Session.Profile(r.Context())
		if err != nil {
			commons.WriteError(w, r, err, logger)
			return
		}
		user = refreshed
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewSession(user, v.Cart.ItemCount()), logger)
}

// OAuthCallback stores the token delivered in the query string and redirects
// to the local page named by next (default "/"), so the token never stays in
// the browser history.
func (c *AuthController) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	clean, err := v.HandleOAuthCallback(r.Context(), r.URL.RequestURI())
	if err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	http.Redirect(w, r, redirectTarget(clean), http.StatusFound)
}

// redirectTarget picks the post-login page from the cleaned callback URL.
// Only local absolute paths are honoured.
func redirectTarget(cleanURL string) string {
	u, err := url.Parse(cleanURL)
	if err != nil {
		return "/"
	}
	next := u.Query().Get("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}
