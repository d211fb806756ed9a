package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Bill struct {
	ID          string          `gorm:"primaryKey;size:64" json:"id"`
	UserId      int             `gorm:"index;not null" json:"user_id"`
	CompanyId   string          `gorm:"primaryKey;size:64;index" json:"company_id"`
	CustomerId  string          `gorm:"size:64;index" json:"customer_id"`
	BillNumber  string          `gorm:"size:100" json:"bill_number"`
	BillDate    *time.Time      `json:"bill_date"`
	DueDate     *time.Time      `json:"due_date"`
	SubTotal    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sub_total"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Status      BillStatus      `gorm:"type:enum('Draft','Confirmed','Paid','Void');default:'Draft'" json:"status"`
	Notes       string          `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
