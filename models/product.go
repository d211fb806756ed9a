package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            string          `gorm:"primaryKey;size:64" json:"id"`
	UserId        int             `gorm:"index;not null" json:"user_id"`
	CompanyId     string          `gorm:"primaryKey;size:64;index" json:"company_id"`
	Name          string          `gorm:"size:100" json:"name"`
	Sku           string          `gorm:"size:100" json:"sku"`
	Barcode       string          `gorm:"size:100" json:"barcode"`
	Unit          string          `gorm:"size:20" json:"unit"`
	HsnCode       string          `gorm:"size:20" json:"hsn_code"`
	SalesPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sales_price"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(7,4);default:0" json:"tax_rate"`
	StockQuantity decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"stock_quantity"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
