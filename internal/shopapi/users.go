package shopapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dayyanintl/surgishop/internal/domain"
	"github.com/dayyanintl/surgishop/internal/webserver"
)

type profilePayload struct {
	FullName   *string `json:"full_name" validate:"omitempty,max=255"`
	Phone      *string `json:"phone" validate:"omitempty,max=50"`
	Address    *string `json:"address" validate:"omitempty,max=255"`
	City       *string `json:"city" validate:"omitempty,max=100"`
	Country    *string `json:"country" validate:"omitempty,max=100"`
	PostalCode *string `json:"postal_code" validate:"omitempty,max=20"`
}

func registerUserRoutes() {
	webserver.ApiGET("/users/me", GetMe, webserver.Protect(webserver.AnyUser)...)
	webserver.ApiPUT("/users/me", UpdateMe, webserver.Protect(webserver.AnyUser)...)
	webserver.ApiGET("/users", ListUsers, webserver.Protect(webserver.Staff)...)
	webserver.ApiPATCH("/users/:id/promote", PromoteUser, webserver.Protect(webserver.Staff)...)
	webserver.ApiPATCH("/users/:id/demote", DemoteUser, webserver.Protect(webserver.Owner)...)
}

func GetMe(c echo.Context) error {
	return ok(c, currentUser(c))
}

// UpdateMe changes the profile fields present in the request
func UpdateMe(c echo.Context) error {
	var payload profilePayload
	if handled, err := bindAndValidate(c, &payload); handled {
		return err
	}
	user := currentUser(c)

	updates := map[string]interface{}{}
	set := func(column string, v *string) {
		if v != nil {
			updates[column] = strings.TrimSpace(*v)
		}
	}
	set("full_name", payload.FullName)
	set("phone", payload.Phone)
	set("address", payload.Address)
	set("city", payload.City)
	set("country", payload.Country)
	set("postal_code", payload.PostalCode)

	if len(updates) > 0 {
		if err := GetDB(c).Model(user).Updates(updates).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update profile", err.Error())
		}
	}
	var fresh domain.User
	if err := GetDB(c).Where("id = ?", user.ID).First(&fresh).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load profile", err.Error())
	}
	return ok(c, fresh)
}

// ListUsers returns accounts, optionally filtered by role or email
func ListUsers(c echo.Context) error {
	skip, limit := parsePagination(c)
	db := GetDB(c).Model(&domain.User{})
	if role := strings.TrimSpace(c.QueryParam("role")); role != "" {
		db = db.Where("role = ?", role)
	}
	if q := strings.TrimSpace(c.QueryParam("search")); q != "" {
		db = likeFilter(db, "email", q)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}
	var rows []domain.User
	if err := db.Order("created_at DESC").Offset(skip).Limit(limit).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}
	return paged(c, rows, total, skip, limit)
}

// PromoteUser grants the manager role. Owners keep their role.
func PromoteUser(c echo.Context) error {
	return changeRole(c, domain.RoleManager, domain.ActionPromoteUser)
}

// DemoteUser returns a manager to the customer role
func DemoteUser(c echo.Context) error {
	return changeRole(c, domain.RoleCustomer, domain.ActionDemoteUser)
}

func changeRole(c echo.Context, role, action string) error {
	var target domain.User
	if err := GetDB(c).Where("id = ?", c.Param("id")).First(&target).Error; err != nil {
		if isNotFound(err) {
			return fail(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}
	if target.IsOwnerRole() {
		if action == domain.ActionDemoteUser {
			return fail(c, http.StatusBadRequest, "OWNER_ROLE_LOCKED", "The owner role cannot be changed", nil)
		}
		return ok(c, target)
	}
	if target.Role == role {
		return ok(c, target)
	}

	previous := target.Role
	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&target).Update("role", role).Error; err != nil {
			return err
		}
		return audit(tx, c, action, fmt.Sprintf("User %s role changed from %s to %s", target.Email, previous, role))
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update role", err.Error())
	}
	target.Role = role
	return ok(c, target)
}
