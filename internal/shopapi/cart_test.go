package shopapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayyanintl/surgishop/internal/dbtest"
	"github.com/dayyanintl/surgishop/internal/domain"
)

func TestCartAccumulatesAndUpdates(t *testing.T) {
	h := newHarness(t)
	_, token := h.user("c@example.com", domain.RoleCustomer)
	p := dbtest.Product(t, h.app.DB(), "Gloves", "GL-M", "9.99", 100)

	rec := h.request(http.MethodPost, "/api/v1/cart", token, map[string]interface{}{"product_id": p.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = h.request(http.MethodPost, "/api/v1/cart", token, map[string]interface{}{"product_id": p.ID, "quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var item domain.CartItem
	decode(t, rec, &item)
	assert.Equal(t, 5, item.Quantity)
	require.NotNil(t, item.Product)
	assert.Equal(t, "Gloves", item.Product.Name)

	rec = h.request(http.MethodPost, "/api/v1/cart", token, map[string]interface{}{"product_id": "missing", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", errorCode(t, rec))

	rec = h.request(http.MethodPost, "/api/v1/cart", token, map[string]interface{}{"product_id": p.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.request(http.MethodPut, "/api/v1/cart/"+item.ID, token, map[string]interface{}{"quantity": 7})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &item)
	assert.Equal(t, 7, item.Quantity)

	rec = h.request(http.MethodGet, "/api/v1/cart", token, nil)
	var rows []domain.CartItem
	decode(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, 7, rows[0].Quantity)

	// a body without quantity is rejected and leaves the row alone
	for _, body := range []interface{}{map[string]interface{}{}, map[string]interface{}{"qty": 5}} {
		rec = h.request(http.MethodPut, "/api/v1/cart/"+item.ID, token, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
	}
	rec = h.request(http.MethodGet, "/api/v1/cart", token, nil)
	decode(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, 7, rows[0].Quantity)

	rec = h.request(http.MethodPut, "/api/v1/cart/"+item.ID, token, map[string]interface{}{"quantity": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.request(http.MethodGet, "/api/v1/cart", token, nil)
	decode(t, rec, &rows)
	assert.Empty(t, rows)
}

func TestCartIsPerUser(t *testing.T) {
	h := newHarness(t)
	_, alice := h.user("alice@example.com", domain.RoleCustomer)
	_, bob := h.user("bob@example.com", domain.RoleCustomer)
	p := dbtest.Product(t, h.app.DB(), "Mask", "MK-1", "0.50", 1000)

	rec := h.request(http.MethodPost, "/api/v1/cart", alice, map[string]interface{}{"product_id": p.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	var item domain.CartItem
	decode(t, rec, &item)

	rec = h.request(http.MethodDelete, "/api/v1/cart/"+item.ID, bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.request(http.MethodDelete, "/api/v1/cart", bob, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.request(http.MethodGet, "/api/v1/cart", alice, nil)
	var rows []domain.CartItem
	decode(t, rec, &rows)
	assert.Len(t, rows, 1)

	rec = h.request(http.MethodDelete, "/api/v1/cart/"+item.ID, alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.request(http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWishlist(t *testing.T) {
	h := newHarness(t)
	_, token := h.user("c@example.com", domain.RoleCustomer)
	p := dbtest.Product(t, h.app.DB(), "Stethoscope", "ST-1", "89.00", 4)

	check := func() bool {
		rec := h.request(http.MethodGet, "/api/v1/wishlist/check/"+p.ID, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var in bool
		decode(t, rec, &in)
		return in
	}
	assert.False(t, check())

	rec := h.request(http.MethodPost, "/api/v1/wishlist", token, map[string]string{"product_id": p.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, check())

	rec = h.request(http.MethodPost, "/api/v1/wishlist", token, map[string]string{"product_id": p.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ALREADY_IN_WISHLIST", errorCode(t, rec))

	rec = h.request(http.MethodGet, "/api/v1/wishlist", token, nil)
	var rows []domain.WishlistItem
	decode(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "Stethoscope", rows[0].Product.Name)

	rec = h.request(http.MethodDelete, "/api/v1/wishlist/"+p.ID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, check())

	rec = h.request(http.MethodDelete, "/api/v1/wishlist/"+p.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
