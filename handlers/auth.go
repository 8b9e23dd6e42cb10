package handlers

import (
	"errors"
	"itr_flow_app_go/middleware"
	"itr_flow_app_go/models"
	"itr_flow_app_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a user and issues a session cookie
func (s *Server) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}

	user, err := services.Authenticate(s.DB, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		return httpError(err)
	}

	session, err := services.CreateSession(s.DB, user.ID, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return httpError(err)
	}

	middleware.SetSessionCookie(c, session, s.Config.Environment == "production")

	services.LogAuditEvent(s.DB, services.AuditContext{
		ActorID:   user.ID,
		ActorName: user.Name,
		ActorRole: user.Role,
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}, models.AuditActionLogin, "User", user.ID, "user logged in", nil, nil)

	return c.JSON(http.StatusOK, user)
}

// Logout deletes the session and clears the cookie
func (s *Server) Logout(c echo.Context) error {
	cookie, err := c.Cookie(middleware.SessionCookieName)
	if err == nil {
		_ = services.DeleteSession(s.DB, cookie.Value)
	}
	middleware.ClearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user
func (s *Server) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.GetCurrentUser(c))
}
