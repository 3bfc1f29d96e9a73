package shopapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/dayyanintl/surgishop/internal/domain"
	"github.com/dayyanintl/surgishop/internal/webserver"
)

type categoryPayload struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description"`
}

type categoryUpdatePayload struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
}

type productPayload struct {
	Name                string          `json:"name" validate:"required,min=1,max=255"`
	Description         string          `json:"description"`
	DetailedDescription string          `json:"detailed_description"`
	Price               decimal.Decimal `json:"price"`
	Sku                 string          `json:"sku" validate:"required,max=100"`
	StockQuantity       int             `json:"stock_quantity" validate:"min=0"`
	ImageURL            string          `json:"image_url" validate:"omitempty,max=1000"`
	IsActive            *bool           `json:"is_active"`
	CategoryID          *string         `json:"category_id"`
	Specifications      string          `json:"specifications"`
}

type productUpdatePayload struct {
	Name                *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description         *string          `json:"description"`
	DetailedDescription *string          `json:"detailed_description"`
	Price               *decimal.Decimal `json:"price"`
	Sku                 *string          `json:"sku" validate:"omitempty,max=100"`
	StockQuantity       *int             `json:"stock_quantity" validate:"omitempty,min=0"`
	ImageURL            *string          `json:"image_url" validate:"omitempty,max=1000"`
	IsActive            *bool            `json:"is_active"`
	CategoryID          *string          `json:"category_id"`
	Specifications      *string          `json:"specifications"`
}

func registerCatalogRoutes() {
	webserver.ApiGET("/categories", ListCategories)
	webserver.ApiPOST("/categories", CreateCategory, webserver.Protect(webserver.Staff)...)
	webserver.ApiPUT("/categories/:id", UpdateCategory, webserver.Protect(webserver.Staff)...)
	webserver.ApiDELETE("/categories/:id", DeleteCategory, webserver.Protect(webserver.Staff)...)

	webserver.ApiGET("/products", ListProducts)
	webserver.ApiGET("/products/:id", GetProduct)
	webserver.ApiPOST("/products", CreateProduct, webserver.Protect(webserver.Staff)...)
	webserver.ApiPUT("/products/:id", UpdateProduct, webserver.Protect(webserver.Staff)...)
	webserver.ApiDELETE("/products/:id", DeleteProduct, webserver.Protect(webserver.Staff)...)
}

// --- Categories ---

func ListCategories(c echo.Context) error {
	skip, limit := parsePagination(c)
	db := GetDB(c).Model(&domain.Category{})
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	}
	var rows []domain.Category
	if err := db.Order("name ASC").Offset(skip).Limit(limit).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	}
	return paged(c, rows, total, skip, limit)
}

func categoryNameTaken(db *gorm.DB, name, exceptID string) (bool, error) {
	var count int64
	q := db.Model(&domain.Category{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func CreateCategory(c echo.Context) error {
	var payload categoryPayload
	if handled, err := bindAndValidate(c, &payload); handled {
		return err
	}
	name := strings.TrimSpace(payload.Name)
	if taken, err := categoryNameTaken(GetDB(c), name, ""); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	} else if taken {
		return fail(c, http.StatusConflict, "CATEGORY_EXISTS", "Category already exists", nil)
	}

	category := &domain.Category{Name: name, Description: payload.Description}
	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(category).Error; err != nil {
			return err
		}
		return audit(tx, c, domain.ActionCreateCategory, fmt.Sprintf("Category %s created", category.Name))
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create category", err.Error())
	}
	return created(c, category)
}

func UpdateCategory(c echo.Context) error {
	var category domain.Category
	if err := GetDB(c).Where("id = ?", c.Param("id")).First(&category).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Category not found", nil)
	}
	var payload categoryUpdatePayload
	if handled, err := bindAndValidate(c, &payload); handled {
		return err
	}
	if payload.Name != nil {
		name := strings.TrimSpace(*payload.Name)
		if taken, err := categoryNameTaken(GetDB(c), name, category.ID); err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
		} else if taken {
			return fail(c, http.StatusConflict, "CATEGORY_EXISTS", "Category already exists", nil)
		}
		category.Name = name
	}
	if payload.Description != nil {
		category.Description = *payload.Description
	}

	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&category).Error; err != nil {
			return err
		}
		return audit(tx, c, domain.ActionUpdateCategory, fmt.Sprintf("Category %s updated", category.ID))
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update category", err.Error())
	}
	return ok(c, category)
}

// DeleteCategory removes a category that no product references
func DeleteCategory(c echo.Context) error {
	var category domain.Category
	if err := GetDB(c).Where("id = ?", c.Param("id")).First(&category).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Category not found", nil)
	}
	var inUse int64
	if err := GetDB(c).Model(&domain.Product{}).Where("category_id = ?", category.ID).Count(&inUse).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	if inUse > 0 {
		return fail(c, http.StatusConflict, "CATEGORY_IN_USE", "Category still has products", map[string]int64{"products": inUse})
	}
	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&category).Error; err != nil {
			return err
		}
		return audit(tx, c, domain.ActionDeleteCategory, fmt.Sprintf("Category %s deleted", category.Name))
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete category", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Products ---

// ListProducts returns the catalog newest first
// @Summary list products
// @Tags Catalog
// @Param skip query int false "Rows to skip"
// @Param limit query int false "Page size, at most 1000"
// @Param category_id query string false "Category"
// @Param search query string false "Name contains, case-insensitive"
// @Param active_only query bool false "Only active products"
// @Router /api/v1/products [get]
func ListProducts(c echo.Context) error {
	skip, limit := parsePagination(c)
	db := GetDB(c).Model(&domain.Product{})
	if categoryID := strings.TrimSpace(c.QueryParam("category_id")); categoryID != "" {
		db = db.Where("category_id = ?", categoryID)
	}
	if q := strings.TrimSpace(c.QueryParam("search")); q != "" {
		db = likeFilter(db, "name", q)
	}
	if cast.ToBool(c.QueryParam("active_only")) {
		db = db.Where("is_active = ?", true)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	var rows []domain.Product
	if err := db.Preload("Category").Order("created_at DESC").Offset(skip).Limit(limit).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return paged(c, rows, total, skip, limit)
}

func loadProduct(c echo.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := GetDB(c).Preload("Category").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func GetProduct(c echo.Context) error {
	p, err := loadProduct(c, c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	return ok(c, p)
}

func skuTaken(db *gorm.DB, sku, exceptID string) (bool, error) {
	var count int64
	q := db.Model(&domain.Product{}).Where("sku = ?", sku)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func validCategory(db *gorm.DB, id *string) (bool, error) {
	if id == nil || *id == "" {
		return true, nil
	}
	var count int64
	err := db.Model(&domain.Category{}).Where("id = ?", *id).Count(&count).Error
	return count > 0, err
}

func CreateProduct(c echo.Context) error {
	var payload productPayload
	if handled, err := bindAndValidate(c, &payload); handled {
		return err
	}
	if payload.Price.IsNegative() {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price must not be negative", nil)
	}
	sku := strings.TrimSpace(payload.Sku)
	if taken, err := skuTaken(GetDB(c), sku, ""); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	} else if taken {
		return fail(c, http.StatusConflict, "SKU_EXISTS", "A product with this SKU already exists", nil)
	}
	if valid, err := validCategory(GetDB(c), payload.CategoryID); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	} else if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_CATEGORY", "Category not found", nil)
	}

	p := &domain.Product{
		Name:                strings.TrimSpace(payload.Name),
		Description:         payload.Description,
		DetailedDescription: payload.DetailedDescription,
		Price:               payload.Price.Round(2),
		Sku:                 sku,
		StockQuantity:       payload.StockQuantity,
		ImageURL:            strings.TrimSpace(payload.ImageURL),
		IsActive:            payload.IsActive == nil || *payload.IsActive,
		Specifications:      payload.Specifications,
	}
	if payload.CategoryID != nil && *payload.CategoryID != "" {
		p.CategoryID = payload.CategoryID
	}

	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Category").Create(p).Error; err != nil {
			return err
		}
		return audit(tx, c, domain.ActionCreateProduct, fmt.Sprintf("Product %s (%s) created", p.Name, p.Sku))
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}
	fresh, err := loadProduct(c, p.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load product", err.Error())
	}
	return created(c, fresh)
}

// UpdateProduct applies the fields present in the request
func UpdateProduct(c echo.Context) error {
	p, err := loadProduct(c, c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	var payload productUpdatePayload
	if handled, err := bindAndValidate(c, &payload); handled {
		return err
	}

	updates := map[string]interface{}{}
	if payload.Name != nil {
		updates["name"] = strings.TrimSpace(*payload.Name)
	}
	if payload.Description != nil {
		updates["description"] = *payload.Description
	}
	if payload.DetailedDescription != nil {
		updates["detailed_description"] = *payload.DetailedDescription
	}
	if payload.Price != nil {
		if payload.Price.IsNegative() {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price must not be negative", nil)
		}
		updates["price"] = payload.Price.Round(2)
	}
	if payload.Sku != nil {
		sku := strings.TrimSpace(*payload.Sku)
		if taken, err := skuTaken(GetDB(c), sku, p.ID); err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
		} else if taken {
			return fail(c, http.StatusConflict, "SKU_EXISTS", "A product with this SKU already exists", nil)
		}
		updates["sku"] = sku
	}
	if payload.StockQuantity != nil {
		updates["stock_quantity"] = *payload.StockQuantity
	}
	if payload.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*payload.ImageURL)
	}
	if payload.IsActive != nil {
		updates["is_active"] = *payload.IsActive
	}
	if payload.CategoryID != nil {
		if valid, err := validCategory(GetDB(c), payload.CategoryID); err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
		} else if !valid {
			return fail(c, http.StatusBadRequest, "INVALID_CATEGORY", "Category not found", nil)
		}
		if *payload.CategoryID == "" {
			updates["category_id"] = nil
		} else {
			updates["category_id"] = *payload.CategoryID
		}
	}
	if payload.Specifications != nil {
		updates["specifications"] = *payload.Specifications
	}

	if len(updates) > 0 {
		err = GetDB(c).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&domain.Product{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
				return err
			}
			return audit(tx, c, domain.ActionUpdateProduct, fmt.Sprintf("Product %s updated: %s", p.ID, updatedFields(updates)))
		})
		if err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
		}
	}
	fresh, err := loadProduct(c, p.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load product", err.Error())
	}
	return ok(c, fresh)
}

func updatedFields(updates map[string]interface{}) string {
	fields := make([]string, 0, len(updates))
	for _, k := range []string{"name", "description", "detailed_description", "price", "sku",
		"stock_quantity", "image_url", "is_active", "category_id", "specifications"} {
		if _, ok := updates[k]; ok {
			fields = append(fields, k)
		}
	}
	return strings.Join(fields, ",")
}

// DeleteProduct removes a product never ordered. Ordered products must be deactivated instead.
func DeleteProduct(c echo.Context) error {
	p, err := loadProduct(c, c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	var ordered int64
	if err := GetDB(c).Model(&domain.OrderItem{}).Where("product_id = ?", p.ID).Count(&ordered).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order items", err.Error())
	}
	if ordered > 0 {
		return fail(c, http.StatusConflict, "PRODUCT_IN_USE",
			"Product has been ordered and cannot be deleted, deactivate it instead", nil)
	}

	err = GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", p.ID).Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", p.ID).Delete(&domain.WishlistItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.Product{}, "id = ?", p.ID).Error; err != nil {
			return err
		}
		return audit(tx, c, domain.ActionDeleteProduct, fmt.Sprintf("Product %s (%s) deleted", p.Name, p.Sku))
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}
	return ok(c, p)
}
