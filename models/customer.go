package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID          string          `gorm:"primaryKey;size:64" json:"id"`
	UserId      int             `gorm:"index;not null" json:"user_id"`
	CompanyId   string          `gorm:"primaryKey;size:64;index" json:"company_id"`
	Name        string          `gorm:"size:100" json:"name"`
	Email       string          `gorm:"size:100" json:"email"`
	Phone       string          `gorm:"size:20" json:"phone"`
	Mobile      string          `gorm:"size:20" json:"mobile"`
	GstNumber   string          `gorm:"size:20" json:"gst_number"`
	Address     string          `gorm:"type:text" json:"address"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit_limit"`
	IsActive    *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
