package shopapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dayyanintl/surgishop/internal/stats"
	"github.com/dayyanintl/surgishop/internal/webserver"
)

func registerStatsRoutes() {
	webserver.ApiGET("/stats/dashboard", Dashboard, webserver.Protect(webserver.Staff)...)
}

// Dashboard returns sales and inventory aggregates
// @Summary dashboard statistics
// @Tags Stats
// @Param from query string false "Start date"
// @Param to query string false "End date, inclusive when given without a time"
// @Router /api/v1/stats/dashboard [get]
func Dashboard(c echo.Context) error {
	r, err := stats.ParseRange(c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", err.Error(), nil)
	}
	d, err := GetAppContext(c).Stats().Dashboard(c.Request().Context(), r)
	if err != nil {
		return failFromError(c, err, "Failed to compute statistics")
	}
	return ok(c, d)
}
