package offlinesync

import "strings"

// EntityKind is the closed set of entity types a sync operation may target.
type EntityKind int

const (
	EntityUnsupported EntityKind = iota
	EntityBill
	EntityCustomer
	EntityProduct
	EntityPayment
)

var entityTableNames = map[EntityKind]string{
	EntityBill:     "bills",
	EntityCustomer: "customers",
	EntityProduct:  "products",
	EntityPayment:  "payments",
}

// ParseEntityKind maps a table name (plural or singular, any case) to its kind.
// Unknown names map to EntityUnsupported.
func ParseEntityKind(tableName string) EntityKind {
	switch strings.ToLower(strings.TrimSpace(tableName)) {
	case "bills", "bill":
		return EntityBill
	case "customers", "customer":
		return EntityCustomer
	case "products", "product":
		return EntityProduct
	case "payments", "payment":
		return EntityPayment
	default:
		return EntityUnsupported
	}
}

// TableName returns the canonical table name, or "" for EntityUnsupported.
func (k EntityKind) TableName() string {
	return entityTableNames[k]
}

func (k EntityKind) String() string {
	if n, ok := entityTableNames[k]; ok {
		return n
	}
	return "unsupported"
}

// EntityKinds lists every supported kind in a stable order.
func EntityKinds() []EntityKind {
	return []EntityKind{EntityBill, EntityCustomer, EntityProduct, EntityPayment}
}
