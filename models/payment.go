package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	ID              string          `gorm:"primaryKey;size:64" json:"id"`
	UserId          int             `gorm:"index;not null" json:"user_id"`
	CompanyId       string          `gorm:"primaryKey;size:64;index" json:"company_id"`
	BillId          string          `gorm:"size:64;index" json:"bill_id"`
	CustomerId      string          `gorm:"size:64;index" json:"customer_id"`
	PaymentDate     *time.Time      `json:"payment_date"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	PaymentMode     PaymentMode     `gorm:"size:20" json:"payment_mode"`
	ReferenceNumber string          `gorm:"size:100" json:"reference_number"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
