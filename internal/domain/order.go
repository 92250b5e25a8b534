package domain

import "time"

// Order lifecycle. Orders start PENDING (cash) or PROCESSING (online) and are
// moved forward by the fulfilment workflow; CANCELLED is reachable from any
// state before SHIPPED.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusSuccess   = "SUCCESS"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusCancelled = "CANCELLED"
)

const (
	PaymentMethodCash   = "cash"
	PaymentMethodOnline = "online"
)

const (
	OrderItemActive    = "ACTIVE"
	OrderItemCancelled = "CANCELLED"
)

type Order struct {
	ID             int64       `json:"id,string" form:"id"`
	UserID         int64       `gorm:"index" json:"user_id,string" form:"user_id"`
	Status         string      `gorm:"size:16;index" json:"status" form:"status"`
	PaymentStatus  string      `gorm:"size:16" json:"payment_status" form:"payment_status"`
	PaymentMethod  string      `gorm:"size:16" json:"payment_method" form:"payment_method"`
	Total          float64     `json:"total" form:"total"`
	DiscountAmount float64     `json:"discount_amount" form:"discount_amount"`
	CouponID       *int64      `gorm:"index" json:"coupon_id,omitempty" form:"coupon_id"`
	ShippingName   string      `gorm:"size:128" json:"shipping_name" form:"shipping_name"`
	ShippingPhone  string      `gorm:"size:32" json:"shipping_phone" form:"shipping_phone"`
	ShippingAddr   string      `gorm:"size:255" json:"shipping_addr" form:"shipping_addr"`
	ShippingCity   string      `gorm:"size:64" json:"shipping_city" form:"shipping_city"`
	ShippingNotes  string      `gorm:"size:512" json:"shipping_notes" form:"shipping_notes"`
	PaymentProof   string      `gorm:"size:255" json:"payment_proof" form:"payment_proof"`
	Items          []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt      time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is one line of an order. Price is the resolved unit price frozen
// at order time; later catalog edits never touch it. Only Status is mutable
// after creation.
type OrderItem struct {
	ID        int64     `json:"id,string" form:"id"`
	OrderID   int64     `gorm:"index" json:"order_id,string" form:"order_id"`
	ProductID int64     `gorm:"index" json:"product_id,string" form:"product_id"`
	Quantity  int       `gorm:"check:quantity >= 1" json:"quantity" form:"quantity"`
	Price     float64   `json:"price" form:"price"`
	Color     string    `gorm:"size:64" json:"color" form:"color"`
	StorageID *int64    `json:"storage_id,omitempty" form:"storage_id"`
	UnitID    *int64    `json:"unit_id,omitempty" form:"unit_id"`
	Status    string    `gorm:"size:16;default:'ACTIVE'" json:"status" form:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
