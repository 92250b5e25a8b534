package domain

import "time"

const (
	CouponTypePercentage = "PERCENTAGE"
	CouponTypeFixed      = "FIXED"
)

// Coupon is a discount rule. UsedCount is the global redemption counter and
// is incremented only inside the order commit transaction. A coupon is never
// deleted while any order references it.
type Coupon struct {
	ID                 int64      `json:"id,string" form:"id"`
	Code               string     `gorm:"size:64;uniqueIndex" json:"code" form:"code"`
	Type               string     `gorm:"size:16" json:"type" form:"type"`
	Value              float64    `json:"value" form:"value"`
	EndDate            *time.Time `json:"end_date" form:"end_date"`
	UserLimit          *int       `json:"user_limit" form:"user_limit"`
	MinimumOrderAmount *float64   `json:"minimum_order_amount" form:"minimum_order_amount"`
	UsedCount          int        `gorm:"default:0" json:"used_count" form:"used_count"`
	IsEnabled          bool       `gorm:"default:true" json:"is_enabled" form:"is_enabled"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupons"
}
