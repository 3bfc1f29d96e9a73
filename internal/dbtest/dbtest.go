// Package dbtest opens throwaway SQLite databases with the full schema for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dayyanintl/surgishop/internal/domain"
)

// Open returns a migrated database stored under t.TempDir().
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "shop.db") + "?_busy_timeout=5000&_foreign_keys=1"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// User inserts a verified user with the given role.
func User(t *testing.T, db *gorm.DB, email, role string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:        email,
		PasswordHash: "x",
		FullName:     "Test " + role,
		Role:         role,
		IsOwner:      role == domain.RoleOwner,
		IsVerified:   true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Product inserts an active product.
func Product(t *testing.T, db *gorm.DB, name, sku, price string, stock int) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Name:          name,
		Sku:           sku,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// Stock reloads the stock quantity of a product.
func Stock(t *testing.T, db *gorm.DB, productID string) int {
	t.Helper()
	var p domain.Product
	require.NoError(t, db.First(&p, "id = ?", productID).Error)
	return p.StockQuantity
}
