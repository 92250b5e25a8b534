package domain

import "time"

// Product types. A SIMPLE product carries its own price and stock, optionally
// split into color variants. A STORAGE product delegates both to its child
// Storage tiers.
const (
	ProductTypeSimple  = "SIMPLE"
	ProductTypeStorage = "STORAGE"
)

// Tax treatment of a StorageUnit.
const (
	TaxStatusPaid   = "PAID"
	TaxStatusUnpaid = "UNPAID"

	TaxTypeFixed      = "FIXED"
	TaxTypePercentage = "PERCENTAGE"
)

type Product struct {
	ID             int64          `json:"id,string" form:"id"`
	Name           string         `gorm:"index" json:"name" form:"name"`
	Type           string         `gorm:"size:16;index" json:"type" form:"type"`
	Price          float64        `json:"price" form:"price"`
	Stock          int            `gorm:"default:0;check:stock >= 0" json:"stock" form:"stock"`
	SalePercentage *float64       `json:"sale_percentage" form:"sale_percentage"`
	SaleEndDate    *time.Time     `json:"sale_end_date" form:"sale_end_date"`
	Variants       []ColorVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	Storages       []Storage      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"storages,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// ColorVariant splits a SIMPLE product's stock by color. The catalog editor
// keeps the variant quantities summing to the product's aggregate stock; the
// checkout path relies on that and maintains both counters together.
type ColorVariant struct {
	ID        int64     `json:"id,string" form:"id"`
	ProductID int64     `gorm:"index" json:"product_id,string" form:"product_id"`
	Color     string    `gorm:"size:64" json:"color" form:"color"`
	Quantity  int       `gorm:"default:0;check:quantity >= 0" json:"quantity" form:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ColorVariant) TableName() string {
	return "product_color_variants"
}

// Storage is a purchasable tier of a STORAGE product, e.g. a capacity option.
// Its stock is the maintained sum of its units' stock.
type Storage struct {
	ID             int64         `json:"id,string" form:"id"`
	ProductID      int64         `gorm:"index" json:"product_id,string" form:"product_id"`
	Size           string        `gorm:"size:64" json:"size" form:"size"`
	Price          float64       `json:"price" form:"price"`
	Stock          int           `gorm:"default:0;check:stock >= 0" json:"stock" form:"stock"`
	SalePercentage *float64      `json:"sale_percentage" form:"sale_percentage"`
	SaleEndDate    *time.Time    `json:"sale_end_date" form:"sale_end_date"`
	Units          []StorageUnit `gorm:"foreignKey:StorageID;constraint:OnDelete:CASCADE" json:"units,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (Storage) TableName() string {
	return "product_storages"
}

// StorageUnit is the smallest purchasable grain under a Storage: one color
// with one tax treatment. The same color may repeat under a storage only with
// a different tax treatment.
type StorageUnit struct {
	ID            int64     `json:"id,string" form:"id"`
	StorageID     int64     `gorm:"index" json:"storage_id,string" form:"storage_id"`
	Color         string    `gorm:"size:64" json:"color" form:"color"`
	Stock         int       `gorm:"default:0;check:stock >= 0" json:"stock" form:"stock"`
	TaxStatus     string    `gorm:"size:16;default:'UNPAID'" json:"tax_status" form:"tax_status"`
	TaxType       string    `gorm:"size:16" json:"tax_type" form:"tax_type"`
	TaxAmount     float64   `json:"tax_amount" form:"tax_amount"`
	TaxPercentage float64   `json:"tax_percentage" form:"tax_percentage"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (StorageUnit) TableName() string {
	return "product_storage_units"
}
