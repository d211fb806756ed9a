package models

type UserRole string

const (
	UserRoleAdmin   UserRole = "A"
	UserRoleOwner   UserRole = "O"
	UserRoleCashier UserRole = "C"
)

type BillStatus string

const (
	BillStatusDraft     BillStatus = "Draft"
	BillStatusConfirmed BillStatus = "Confirmed"
	BillStatusPaid      BillStatus = "Paid"
	BillStatusVoid      BillStatus = "Void"
)

type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "Cash"
	PaymentModeCard   PaymentMode = "Card"
	PaymentModeUpi    PaymentMode = "UPI"
	PaymentModeBank   PaymentMode = "Bank"
	PaymentModeCheque PaymentMode = "Cheque"
)
