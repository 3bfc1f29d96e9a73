package shopapi

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayyanintl/surgishop/internal/dbtest"
	"github.com/dayyanintl/surgishop/internal/domain"
)

func orderBody(productID string, qty int) map[string]interface{} {
	return map[string]interface{}{
		"items":            []map[string]interface{}{{"product_id": productID, "quantity": qty}},
		"shipping_address": "12 Theatre Lane",
	}
}

func TestPlaceOrderFlow(t *testing.T) {
	h := newHarness(t)
	buyer, buyerToken := h.user("buyer@example.com", domain.RoleCustomer)
	_, manager := h.user("m@example.com", domain.RoleManager)
	p := dbtest.Product(t, h.app.DB(), "Suture Kit", "SK-1", "20.00", 10)

	rec := h.request(http.MethodPost, "/api/v1/orders", buyerToken, orderBody(p.ID, 3))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order domain.Order
	decode(t, rec, &order)
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Equal(t, buyer.ID, order.UserID)
	require.Len(t, order.Items, 1)
	assert.True(t, decimal.RequireFromString("60").Equal(order.Subtotal))
	assert.True(t, decimal.RequireFromString("66").Equal(order.TotalAmount))
	assert.Equal(t, 7, dbtest.Stock(t, h.app.DB(), p.ID))

	assert.Eventually(t, func() bool { return len(h.mail.to("owner@example.com")) == 1 }, 5*time.Second, 20*time.Millisecond)

	rec = h.request(http.MethodPost, "/api/v1/orders", buyerToken, orderBody(p.ID, 8))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Insufficient stock for Suture Kit")
	assert.Equal(t, 7, dbtest.Stock(t, h.app.DB(), p.ID))

	rec = h.request(http.MethodGet, "/api/v1/orders", buyerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []domain.Order
	meta := decode(t, rec, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(1), meta.Total)

	rec = h.request(http.MethodGet, "/api/v1/orders/all", buyerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.request(http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", manager, map[string]string{"status": "Shipped"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &order)
	assert.Equal(t, domain.OrderShipped, order.Status)
	assert.Eventually(t, func() bool { return len(h.mail.to("buyer@example.com")) == 1 }, 5*time.Second, 20*time.Millisecond)

	rec = h.request(http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", manager, map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_STATUS", errorCode(t, rec))

	rec = h.request(http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", manager, map[string]string{"status": "cancelled"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, dbtest.Stock(t, h.app.DB(), p.ID))

	rec = h.request(http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", manager, map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ORDER_CLOSED", errorCode(t, rec))

	rec = h.request(http.MethodPatch, "/api/v1/orders/missing/status", manager, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.request(http.MethodGet, "/api/v1/orders/all?status=cancelled", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []domain.Order
	decode(t, rec, &all)
	assert.Len(t, all, 1)

	rec = h.request(http.MethodGet, "/api/v1/orders/all?status=bogus", manager, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceOrderRequiresVerifiedEmail(t *testing.T) {
	h := newHarness(t)
	u, token := h.user("new@example.com", domain.RoleCustomer)
	require.NoError(t, h.app.DB().Model(u).Update("is_verified", false).Error)
	p := dbtest.Product(t, h.app.DB(), "Syringe", "SY-5", "0.40", 500)

	rec := h.request(http.MethodPost, "/api/v1/orders", token, orderBody(p.ID, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EMAIL_NOT_VERIFIED", errorCode(t, rec))
	assert.Equal(t, 500, dbtest.Stock(t, h.app.DB(), p.ID))
}

func TestPlaceOrderValidation(t *testing.T) {
	h := newHarness(t)
	_, token := h.user("c@example.com", domain.RoleCustomer)

	rec := h.request(http.MethodPost, "/api/v1/orders", token, map[string]interface{}{
		"items": []interface{}{}, "shipping_address": "somewhere",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.request(http.MethodPost, "/api/v1/orders", token, orderBody("missing", 1))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", errorCode(t, rec))
}

func TestExportOrders(t *testing.T) {
	h := newHarness(t)
	_, buyer := h.user("buyer@example.com", domain.RoleCustomer)
	_, manager := h.user("m@example.com", domain.RoleManager)
	p := dbtest.Product(t, h.app.DB(), "Drape", "DR-1", "5.00", 10)

	rec := h.request(http.MethodPost, "/api/v1/orders", buyer, orderBody(p.ID, 2))
	require.Equal(t, http.StatusCreated, rec.Code)
	var order domain.Order
	decode(t, rec, &order)

	rec = h.request(http.MethodGet, "/api/v1/orders/export?format=csv", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), order.OrderNo)

	rec = h.request(http.MethodGet, "/api/v1/orders/export?format=xlsx", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"), "xlsx is a zip archive")

	rec = h.request(http.MethodGet, "/api/v1/orders/export?format=pdf", manager, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.request(http.MethodGet, fmt.Sprintf("/api/v1/orders/export?format=csv&status=%s", "nope"), manager, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.request(http.MethodGet, "/api/v1/orders/export", buyer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
