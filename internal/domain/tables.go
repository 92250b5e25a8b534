package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysUser{},
	// Catalog
	&Product{},
	&ColorVariant{},
	&Storage{},
	&StorageUnit{},
	// Checkout
	&Order{},
	&OrderItem{},
	&Coupon{},
}
