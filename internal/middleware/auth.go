package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/swimhub/reservation-service/pkg/auth"
)

const (
	ctxMemberID   = "member_id"
	ctxMemberRole = "member_role"
)

// RequireAuth resolves the caller's identity from a Bearer token and
// stashes member id + role on the request context.
func RequireAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			claims, err := auth.ParseValidate(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			c.Set(ctxMemberID, claims.MemberID)
			c.Set(ctxMemberRole, claims.Role)
			return next(c)
		}
	}
}

// RequireAdmin guards admin-only routes. It must run after RequireAuth.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsAdmin(c) {
			return echo.NewHTTPError(http.StatusForbidden, "admin role required")
		}
		return next(c)
	}
}

func MemberID(c echo.Context) uint {
	id, _ := c.Get(ctxMemberID).(uint)
	return id
}

func IsAdmin(c echo.Context) bool {
	role, _ := c.Get(ctxMemberRole).(string)
	return role == auth.RoleAdmin
}
