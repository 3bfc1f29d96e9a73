package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUserRoles(t *testing.T) {
	cases := []struct {
		user  User
		staff bool
		owner bool
	}{
		{User{Role: RoleCustomer}, false, false},
		{User{Role: RoleManager}, true, false},
		{User{Role: RoleOwner}, true, true},
		{User{Role: RoleCustomer, IsOwner: true}, true, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.staff, tc.user.IsStaff(), tc.user.Role)
		assert.Equal(t, tc.owner, tc.user.IsOwnerRole(), tc.user.Role)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestVerificationExpired(t *testing.T) {
	now := time.Now()
	v := EmailVerification{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, v.Expired(now))
	assert.True(t, v.Expired(now.Add(2*time.Minute)))
}

func TestOrderStatuses(t *testing.T) {
	for _, s := range OrderStatuses {
		assert.True(t, ValidOrderStatus(s))
	}
	assert.False(t, ValidOrderStatus("Pending"))
	assert.False(t, ValidOrderStatus(""))
}

func TestLineTotal(t *testing.T) {
	item := OrderItem{PriceAtPurchase: decimal.RequireFromString("19.99"), Quantity: 3}
	assert.True(t, decimal.RequireFromString("59.97").Equal(item.LineTotal()))
}

func TestBeforeCreateAssignsIDs(t *testing.T) {
	p := &Product{}
	assert.NoError(t, p.BeforeCreate(nil))
	assert.Len(t, p.ID, 36)

	keep := &Category{ID: "fixed"}
	assert.NoError(t, keep.BeforeCreate(nil))
	assert.Equal(t, "fixed", keep.ID)

	a := NewAuditLog("", ActionPlaceOrder, "details", "127.0.0.1")
	assert.Nil(t, a.ActorID)
	assert.NoError(t, a.BeforeCreate(nil))
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.Timestamp.IsZero())

	a = NewAuditLog("u1", ActionPlaceOrder, "", "")
	assert.Equal(t, "u1", *a.ActorID)
}
