package shopapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dayyanintl/surgishop/internal/domain"
	"github.com/dayyanintl/surgishop/internal/export"
	"github.com/dayyanintl/surgishop/internal/orders"
	"github.com/dayyanintl/surgishop/internal/webserver"
)

type statusPayload struct {
	Status string `json:"status" validate:"required"`
}

func registerOrderRoutes() {
	webserver.ApiPOST("/orders", PlaceOrder, webserver.Protect(webserver.AnyUser)...)
	webserver.ApiGET("/orders", ListMyOrders, webserver.Protect(webserver.AnyUser)...)
	webserver.ApiGET("/orders/all", ListAllOrders, webserver.Protect(webserver.Staff)...)
	webserver.ApiGET("/orders/export", ExportOrders, webserver.Protect(webserver.Staff)...)
	webserver.ApiPATCH("/orders/:id/status", UpdateOrderStatus, webserver.Protect(webserver.Staff)...)
}

// PlaceOrder checks stock, freezes prices and decrements inventory
// @Summary place an order
// @Tags Orders
// @Router /api/v1/orders [post]
func PlaceOrder(c echo.Context) error {
	var payload orders.PlaceOrderRequest
	if handled, err := bindAndValidate(c, &payload); handled {
		return err
	}
	payload.ShippingAddress = strings.TrimSpace(payload.ShippingAddress)

	order, err := GetAppContext(c).Orders().PlaceOrder(c.Request().Context(), currentUser(c), payload, c.RealIP())
	if err != nil {
		return failFromError(c, err, "Failed to place order")
	}
	return created(c, order)
}

func ListMyOrders(c echo.Context) error {
	skip, limit := parsePagination(c)
	rows, total, err := GetAppContext(c).Orders().List(c.Request().Context(), orders.ListFilter{
		UserID: currentUser(c).ID,
		Offset: skip,
		Limit:  limit,
	})
	if err != nil {
		return failFromError(c, err, "Failed to query orders")
	}
	return paged(c, rows, total, skip, limit)
}

func statusFilter(c echo.Context) (string, bool) {
	status := strings.TrimSpace(c.QueryParam("status"))
	if status != "" && !domain.ValidOrderStatus(status) {
		return "", false
	}
	return status, true
}

func ListAllOrders(c echo.Context) error {
	skip, limit := parsePagination(c)
	status, valid := statusFilter(c)
	if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown order status", domain.OrderStatuses)
	}
	rows, total, err := GetAppContext(c).Orders().List(c.Request().Context(), orders.ListFilter{
		Status: status,
		Offset: skip,
		Limit:  limit,
	})
	if err != nil {
		return failFromError(c, err, "Failed to query orders")
	}
	return paged(c, rows, total, skip, limit)
}

func UpdateOrderStatus(c echo.Context) error {
	var payload statusPayload
	if handled, err := bindAndValidate(c, &payload); handled {
		return err
	}
	order, err := GetAppContext(c).Orders().UpdateStatus(c.Request().Context(), currentUser(c),
		c.Param("id"), strings.ToLower(strings.TrimSpace(payload.Status)), c.RealIP())
	if err != nil {
		return failFromError(c, err, "Failed to update order status")
	}
	return ok(c, order)
}

// ExportOrders downloads every order matching the status filter as csv or xlsx
func ExportOrders(c echo.Context) error {
	format := strings.ToLower(c.QueryParam("format"))
	if format == "" {
		format = export.FormatCSV
	}
	contentType, err := export.ContentType(format)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_FORMAT", err.Error(), nil)
	}
	status, valid := statusFilter(c)
	if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown order status", domain.OrderStatuses)
	}

	rows, _, err := GetAppContext(c).Orders().List(c.Request().Context(), orders.ListFilter{Status: status})
	if err != nil {
		return failFromError(c, err, "Failed to query orders")
	}

	filename := fmt.Sprintf("orders-%s.%s", time.Now().Format("20060102-150405"), format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().WriteHeader(http.StatusOK)
	return export.WriteOrders(c.Response(), format, rows)
}
