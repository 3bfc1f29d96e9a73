// Package shopapi implements the storefront REST API under /api/v1.
package shopapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dayyanintl/surgishop/internal/webserver"
)

// Init registers every route. webserver.Init must run first.
func Init() {
	webserver.RootGET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Welcome to the SurgiShop API"})
	})
	webserver.RootGET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	registerAuthRoutes()
	registerUserRoutes()
	registerCatalogRoutes()
	registerCartRoutes()
	registerOrderRoutes()
	registerStatsRoutes()
	registerUploadRoutes()
	registerAuditRoutes()
	registerSystemRoutes()
}
