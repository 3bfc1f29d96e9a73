package shopapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dayyanintl/surgishop/internal/app"
	"github.com/dayyanintl/surgishop/internal/domain"
	"github.com/dayyanintl/surgishop/internal/orders"
	"github.com/dayyanintl/surgishop/internal/webserver"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Meta describes one page of a list response
type Meta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Skip     int   `json:"skip"`
}

// Response is the success envelope
type Response struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Data: data})
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{Data: data})
}

func message(c echo.Context, msg string) error {
	return ok(c, map[string]string{"message": msg})
}

func fail(c echo.Context, status int, code, msg string, details interface{}) error {
	return c.JSON(status, webserver.ErrorResponse{Error: code, Message: msg, Details: details})
}

func paged(c echo.Context, rows interface{}, total int64, skip, limit int) error {
	page := 1
	if limit > 0 {
		page = skip/limit + 1
	}
	return c.JSON(http.StatusOK, Response{
		Data: rows,
		Meta: &Meta{Total: total, Page: page, PageSize: limit, Skip: skip},
	})
}

// parsePagination reads skip and limit. limit defaults to 100 and is capped at 1000.
func parsePagination(c echo.Context) (skip, limit int) {
	skip = cast.ToInt(c.QueryParam("skip"))
	if skip < 0 {
		skip = 0
	}
	limit = defaultLimit
	if v := c.QueryParam("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit
}

// bindAndValidate binds the request body into payload and runs the struct validator.
// On failure the error response has already been written and handled is true.
func bindAndValidate(c echo.Context, payload interface{}) (handled bool, err error) {
	if err := c.Bind(payload); err != nil {
		return true, fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request body", err.Error())
	}
	if err := c.Validate(payload); err != nil {
		return true, handleValidationError(c, err)
	}
	return false, nil
}

func handleValidationError(c echo.Context, err error) error {
	if details := webserver.ValidationDetails(err); details != nil {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Request validation failed", details)
	}
	return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
}

// failFromError maps service errors onto the envelope.
func failFromError(c echo.Context, err error, fallback string) error {
	var oe *orders.Error
	if errors.As(err, &oe) {
		return fail(c, oe.Status, oe.Code, oe.Message, nil)
	}
	zap.L().Error(fallback,
		zap.String("namespace", "api"),
		zap.String("uri", c.Request().RequestURI),
		zap.Error(err))
	return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", fallback, err.Error())
}

func GetAppContext(c echo.Context) app.AppContext {
	return webserver.GetAppContext(c)
}

// GetDB returns the request scoped database handle.
func GetDB(c echo.Context) *gorm.DB {
	return GetAppContext(c).DB().WithContext(c.Request().Context())
}

func currentUser(c echo.Context) *domain.User {
	return webserver.CurrentUser(c)
}

// audit appends an audit entry for the current user.
func audit(tx *gorm.DB, c echo.Context, action, details string) error {
	actorID := ""
	if u := currentUser(c); u != nil {
		actorID = u.ID
	}
	return tx.Create(domain.NewAuditLog(actorID, action, details, c.RealIP())).Error
}

// likeFilter adds a case-insensitive contains filter on column.
func likeFilter(db *gorm.DB, column, term string) *gorm.DB {
	if strings.EqualFold(db.Name(), "postgres") {
		return db.Where(column+" ILIKE ?", "%"+term+"%")
	}
	return db.Where("LOWER("+column+") LIKE ?", "%"+strings.ToLower(term)+"%")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
