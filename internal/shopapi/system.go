package shopapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dayyanintl/surgishop/internal/app"
	"github.com/dayyanintl/surgishop/internal/domain"
	"github.com/dayyanintl/surgishop/internal/webserver"
)

// TableInfo reports the row count of one managed table
type TableInfo struct {
	Name     string `json:"name"`
	RowCount int64  `json:"row_count"`
}

func registerSystemRoutes() {
	webserver.ApiGET("/system/tables", ListTables, webserver.Protect(webserver.Owner)...)
	webserver.ApiGET("/system/jobs", ListJobs, webserver.Protect(webserver.Owner)...)
	webserver.ApiPOST("/system/jobs/:name/run", RunJob, webserver.Protect(webserver.Owner)...)
}

// ListTables returns row counts for every table the application manages
// @Summary database table overview
// @Tags System
// @Router /api/v1/system/tables [get]
func ListTables(c echo.Context) error {
	db := GetDB(c)
	tables := make([]TableInfo, 0, len(domain.Tables))
	for _, model := range domain.Tables {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to inspect schema", err.Error())
		}
		var count int64
		if err := db.Table(stmt.Schema.Table).Count(&count).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count rows", err.Error())
		}
		tables = append(tables, TableInfo{Name: stmt.Schema.Table, RowCount: count})
	}
	return ok(c, tables)
}

// ListJobs returns the housekeeping schedule
func ListJobs(c echo.Context) error {
	return ok(c, GetAppContext(c).Jobs())
}

// RunJob triggers a housekeeping job immediately
func RunJob(c echo.Context) error {
	if err := GetAppContext(c).RunJobNow(c.Param("name")); err != nil {
		if errors.Is(err, app.ErrJobNotFound) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "RUN_FAILED", "Failed to run job", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
