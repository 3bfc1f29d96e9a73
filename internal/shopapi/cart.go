package shopapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dayyanintl/surgishop/internal/domain"
	"github.com/dayyanintl/surgishop/internal/webserver"
)

type cartAddPayload struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=100000"`
}

// Quantity is a pointer so that a missing field fails validation instead of
// reading as zero and removing the row.
type cartUpdatePayload struct {
	Quantity *int `json:"quantity" validate:"required,max=100000"`
}

type wishlistPayload struct {
	ProductID string `json:"product_id" validate:"required"`
}

func registerCartRoutes() {
	protect := webserver.Protect(webserver.AnyUser)
	webserver.ApiGET("/cart", GetCart, protect...)
	webserver.ApiPOST("/cart", AddToCart, protect...)
	webserver.ApiPUT("/cart/:id", UpdateCartItem, protect...)
	webserver.ApiDELETE("/cart/:id", RemoveCartItem, protect...)
	webserver.ApiDELETE("/cart", ClearCart, protect...)

	webserver.ApiGET("/wishlist", GetWishlist, protect...)
	webserver.ApiPOST("/wishlist", AddToWishlist, protect...)
	webserver.ApiDELETE("/wishlist/:product_id", RemoveFromWishlist, protect...)
	webserver.ApiGET("/wishlist/check/:product_id", CheckWishlist, protect...)
}

func productExists(db *gorm.DB, id string) (bool, error) {
	var count int64
	err := db.Model(&domain.Product{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func loadCartItem(c echo.Context, id string) (*domain.CartItem, error) {
	var item domain.CartItem
	err := GetDB(c).Preload("Product").Preload("Product.Category").
		Where("id = ? AND user_id = ?", id, currentUser(c).ID).First(&item).Error
	return &item, err
}

func GetCart(c echo.Context) error {
	var rows []domain.CartItem
	err := GetDB(c).Preload("Product").Preload("Product.Category").
		Where("user_id = ?", currentUser(c).ID).Find(&rows).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query cart", err.Error())
	}
	return ok(c, rows)
}

// AddToCart adds a product or increases the quantity already in the cart
func AddToCart(c echo.Context) error {
	var payload cartAddPayload
	if handled, err := bindAndValidate(c, &payload); handled {
		return err
	}
	user := currentUser(c)

	exists, err := productExists(GetDB(c), payload.ProductID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	if !exists {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	}

	item := &domain.CartItem{UserID: user.ID, ProductID: payload.ProductID, Quantity: payload.Quantity}
	err = GetDB(c).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("cart_items.quantity + ?", payload.Quantity),
		}),
	}).Create(item).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update cart", err.Error())
	}

	var saved domain.CartItem
	err = GetDB(c).Preload("Product").Preload("Product.Category").
		Where("user_id = ? AND product_id = ?", user.ID, payload.ProductID).First(&saved).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load cart item", err.Error())
	}
	return ok(c, saved)
}

// UpdateCartItem sets the quantity. Zero or less removes the row.
func UpdateCartItem(c echo.Context) error {
	item, err := loadCartItem(c, c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Item not found", nil)
	}
	var payload cartUpdatePayload
	if handled, err := bindAndValidate(c, &payload); handled {
		return err
	}

	qty := *payload.Quantity
	if qty <= 0 {
		if err := GetDB(c).Delete(&domain.CartItem{}, "id = ?", item.ID).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to remove item", err.Error())
		}
		return ok(c, map[string]string{"status": "removed"})
	}

	if err := GetDB(c).Model(&domain.CartItem{}).Where("id = ?", item.ID).Update("quantity", qty).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update item", err.Error())
	}
	item.Quantity = qty
	return ok(c, item)
}

func RemoveCartItem(c echo.Context) error {
	res := GetDB(c).Where("id = ? AND user_id = ?", c.Param("id"), currentUser(c).ID).Delete(&domain.CartItem{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to remove item", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Item not found", nil)
	}
	return ok(c, map[string]string{"status": "success"})
}

func ClearCart(c echo.Context) error {
	if err := GetDB(c).Where("user_id = ?", currentUser(c).ID).Delete(&domain.CartItem{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to clear cart", err.Error())
	}
	return ok(c, map[string]string{"status": "success"})
}

// --- Wishlist ---

func GetWishlist(c echo.Context) error {
	var rows []domain.WishlistItem
	err := GetDB(c).Preload("Product").Preload("Product.Category").
		Where("user_id = ?", currentUser(c).ID).Find(&rows).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query wishlist", err.Error())
	}
	return ok(c, rows)
}

func AddToWishlist(c echo.Context) error {
	var payload wishlistPayload
	if handled, err := bindAndValidate(c, &payload); handled {
		return err
	}
	user := currentUser(c)

	var count int64
	err := GetDB(c).Model(&domain.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", user.ID, payload.ProductID).Count(&count).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query wishlist", err.Error())
	}
	if count > 0 {
		return fail(c, http.StatusBadRequest, "ALREADY_IN_WISHLIST", "Item already in wishlist", nil)
	}
	exists, err := productExists(GetDB(c), payload.ProductID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	if !exists {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	}

	item := &domain.WishlistItem{UserID: user.ID, ProductID: payload.ProductID}
	if err := GetDB(c).Create(item).Error; err != nil {
		return fail(c, http.StatusBadRequest, "ALREADY_IN_WISHLIST", "Item already in wishlist", err.Error())
	}
	var saved domain.WishlistItem
	if err := GetDB(c).Preload("Product").Preload("Product.Category").Where("id = ?", item.ID).First(&saved).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load wishlist item", err.Error())
	}
	return created(c, saved)
}

func RemoveFromWishlist(c echo.Context) error {
	res := GetDB(c).Where("user_id = ? AND product_id = ?", currentUser(c).ID, c.Param("product_id")).
		Delete(&domain.WishlistItem{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to remove item", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Item not found in wishlist", nil)
	}
	return ok(c, map[string]string{"status": "success"})
}

func CheckWishlist(c echo.Context) error {
	var count int64
	err := GetDB(c).Model(&domain.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", currentUser(c).ID, c.Param("product_id")).
		Count(&count).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query wishlist", err.Error())
	}
	return ok(c, count > 0)
}
