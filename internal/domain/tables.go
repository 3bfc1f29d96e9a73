package domain

var Tables = []interface{}{
	// Accounts
	&User{},
	&EmailVerification{},
	// Catalog
	&Category{},
	&Product{},
	// Shopping
	&CartItem{},
	&WishlistItem{},
	&Order{},
	&OrderItem{},
	// System
	&AuditLog{},
}
