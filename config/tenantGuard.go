package config

import (
	"context"
	"strings"

	"github.com/mmdatafocus/bizbooks_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const tenantColumn = "company_id"

// TenantGuardPlugin scopes queries, updates and deletes to the request's company_id
// whenever the model has a company_id column.
//
// NOTE:
// - Raw SQL is not covered; include company_id manually.
// - Admin/internal bypass is explicit via context flags.
type TenantGuardPlugin struct{}

func NewTenantGuardPlugin() *TenantGuardPlugin { return &TenantGuardPlugin{} }

func (p *TenantGuardPlugin) Name() string { return "tenant_guard" }

func (p *TenantGuardPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("tenant_guard:query", tenantGuardCallback); err != nil {
		return err
	}
	// First/Take
	if err := db.Callback().Row().Before("gorm:row").Register("tenant_guard:row", tenantGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("tenant_guard:update", tenantGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("tenant_guard:delete", tenantGuardCallback); err != nil {
		return err
	}
	return nil
}

func tenantGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil || db.Statement.Context == nil {
		return
	}
	ctx := db.Statement.Context
	if shouldBypassTenantScope(ctx) {
		return
	}
	companyID := companyIdFromContext(ctx)
	if companyID == "" || !schemaHasTenantColumn(db.Statement) {
		return
	}
	// Don't duplicate an explicit tenant filter.
	if whereHasTenantColumn(db.Statement.Clauses["WHERE"]) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: tenantColumn},
				Value:  companyID,
			},
		},
	})
}

func schemaHasTenantColumn(stmt *gorm.Statement) bool {
	if stmt.Schema == nil {
		return false
	}
	for _, f := range stmt.Schema.Fields {
		if strings.EqualFold(f.DBName, tenantColumn) {
			return true
		}
	}
	return false
}

func companyIdFromContext(ctx context.Context) string {
	if v, ok := appctx.GetString(ctx, appctx.ContextKeyCompanyId); ok {
		return v
	}
	return ""
}

func shouldBypassTenantScope(ctx context.Context) bool {
	if v, ok := appctx.GetBool(ctx, appctx.ContextKeySkipTenantScope); ok && v {
		return true
	}
	if v, ok := appctx.GetBool(ctx, appctx.ContextKeyIsAdmin); ok && v {
		return true
	}
	return false
}

func whereHasTenantColumn(c clause.Clause) bool {
	if c.Expression == nil {
		return false
	}
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprHasTenantColumn(e) {
			return true
		}
	}
	return false
}

func exprHasTenantColumn(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return isTenantColumn(v.Column)
	case clause.Neq:
		return isTenantColumn(v.Column)
	case clause.IN:
		return isTenantColumn(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprHasTenantColumn(x) {
				return true
			}
		}
		return false
	case clause.OrConditions:
		for _, x := range v.Exprs {
			if exprHasTenantColumn(x) {
				return true
			}
		}
		return false
	case clause.Expr:
		// best-effort for raw expressions
		return strings.Contains(strings.ToLower(v.SQL), tenantColumn)
	case clause.NamedExpr:
		return strings.Contains(strings.ToLower(v.SQL), tenantColumn)
	default:
		return false
	}
}

func isTenantColumn(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, tenantColumn)
	case clause.Column:
		return strings.EqualFold(c.Name, tenantColumn)
	default:
		return false
	}
}
