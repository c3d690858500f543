package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// 指定ロール以外を403で弾くガード。AuthJWTの後段に置くこと。
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got, _ := c.Get(CtxUserRoleKey).(string)
			if got != role {
				return c.JSON(http.StatusForbidden, errorJSON("Access denied. Admins only."))
			}
			return next(c)
		}
	}
}
