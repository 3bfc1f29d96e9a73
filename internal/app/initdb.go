package app

import (
	"go.uber.org/zap"

	"github.com/dayyanintl/surgishop/internal/domain"
)

// checkCategories creates the default catalog categories
func (a *Application) checkCategories() {
	for _, name := range a.appConfig.Shop.DefaultCategories {
		var count int64
		if err := a.gormDB.Model(&domain.Category{}).Where("name = ?", name).Count(&count).Error; err != nil {
			zap.L().Error("failed to query default category", zap.String("name", name), zap.Error(err))
			continue
		}
		if count > 0 {
			continue
		}
		if err := a.gormDB.Create(&domain.Category{Name: name}).Error; err != nil {
			zap.L().Error("failed to create default category", zap.String("name", name), zap.Error(err))
		} else {
			zap.L().Info("initialized default category", zap.String("name", name))
		}
	}
}

// checkOwner makes sure the account registered with the owner email holds the owner role
func (a *Application) checkOwner() {
	email := domain.NormalizeEmail(a.appConfig.Shop.OwnerEmail)
	if email == "" {
		return
	}
	var user domain.User
	if err := a.gormDB.Where("email = ?", email).First(&user).Error; err != nil {
		return
	}
	if user.Role == domain.RoleOwner && user.IsOwner {
		return
	}
	err := a.gormDB.Model(&user).Updates(map[string]interface{}{
		"role":     domain.RoleOwner,
		"is_owner": true,
	}).Error
	if err != nil {
		zap.L().Error("failed to restore owner role", zap.String("email", email), zap.Error(err))
		return
	}
	zap.L().Info("restored owner role", zap.String("email", email))
}
