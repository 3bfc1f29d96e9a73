package webserver

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dayyanintl/surgishop/internal/app"
	"github.com/dayyanintl/surgishop/internal/auth"
	"github.com/dayyanintl/surgishop/internal/domain"
)

const (
	claimsKey = "claims"
	userKey   = "user"
)

// Access levels for Protect
const (
	AnyUser = iota
	Staff
	Owner
)

// GetAppContext returns the application bound to the request.
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(appContextKey).(app.AppContext)
}

// CurrentUser returns the authenticated user loaded by Protect.
func CurrentUser(c echo.Context) *domain.User {
	u, _ := c.Get(userKey).(*domain.User)
	return u
}

// Protect returns the middleware chain for a route requiring the given access level:
// bearer token check, user lookup, then role check.
func Protect(level int) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		echojwt.WithConfig(echojwt.Config{
			ContextKey: claimsKey,
			ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
				return GetAppContext(c).Tokens().ParseAccessToken(token)
			},
			ErrorHandler: func(c echo.Context, err error) error {
				if errors.Is(err, auth.ErrExpiredToken) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Token has expired")
				}
				if errors.Is(err, echojwt.ErrJWTMissing) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Missing bearer token")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
			},
		}),
		loadUser,
		requireLevel(level),
	}
}

func loadUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := c.Get(claimsKey).(*auth.Claims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
		}
		var user domain.User
		err := GetAppContext(c).DB().WithContext(c.Request().Context()).
			Where("id = ?", claims.UserID()).First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
			}
			return err
		}
		c.Set(userKey, &user)
		return next(c)
	}
}

func requireLevel(level int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			switch {
			case level == Staff && !user.IsStaff():
				return echo.NewHTTPError(http.StatusForbidden, "Not enough permissions")
			case level == Owner && !user.IsOwnerRole():
				return echo.NewHTTPError(http.StatusForbidden, "Owner access required")
			}
			return next(c)
		}
	}
}
