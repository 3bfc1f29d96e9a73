package shopapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dayyanintl/surgishop/internal/domain"
	"github.com/dayyanintl/surgishop/internal/webserver"
)

func registerAuditRoutes() {
	webserver.ApiGET("/audit-logs", ListAuditLogs, webserver.Protect(webserver.Owner)...)
}

// ListAuditLogs returns the audit trail newest first
func ListAuditLogs(c echo.Context) error {
	skip, limit := parsePagination(c)
	db := GetDB(c).Model(&domain.AuditLog{})
	if action := strings.TrimSpace(c.QueryParam("action")); action != "" {
		db = db.Where("action = ?", action)
	}
	if actor := strings.TrimSpace(c.QueryParam("actor_id")); actor != "" {
		db = db.Where("actor_id = ?", actor)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query audit logs", err.Error())
	}
	var rows []domain.AuditLog
	if err := db.Order("timestamp DESC").Offset(skip).Limit(limit).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query audit logs", err.Error())
	}
	return paged(c, rows, total, skip, limit)
}
