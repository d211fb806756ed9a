package utils

import (
	"context"

	"github.com/mmdatafocus/bizbooks_backend/appctx"
)

// Alias the shared context key type so callers only import utils.
type contextKey = appctx.ContextKey

var (
	ContextKeyCompanyId     = appctx.ContextKeyCompanyId
	ContextKeyUsername      = appctx.ContextKeyUsername
	ContextKeyUserId        = appctx.ContextKeyUserId
	ContextKeyDeviceId      = appctx.ContextKeyDeviceId
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId

	ContextKeyIsAdmin         = appctx.ContextKeyIsAdmin
	ContextKeySkipTenantScope = appctx.ContextKeySkipTenantScope
)

func GetCompanyIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCompanyId)
}

func GetUsernameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUsername)
}

func GetUserIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyUserId)
}

func GetDeviceIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyDeviceId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func GetIsAdminFromContext(ctx context.Context) (bool, bool) {
	return appctx.GetBool(ctx, ContextKeyIsAdmin)
}

func SetCompanyIdInContext(ctx context.Context, companyId string) context.Context {
	return appctx.Set(ctx, ContextKeyCompanyId, companyId)
}

func SetUsernameInContext(ctx context.Context, username string) context.Context {
	return appctx.Set(ctx, ContextKeyUsername, username)
}

func SetUserIdInContext(ctx context.Context, userId int) context.Context {
	return appctx.Set(ctx, ContextKeyUserId, userId)
}

func SetDeviceIdInContext(ctx context.Context, deviceId string) context.Context {
	return appctx.Set(ctx, ContextKeyDeviceId, deviceId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetIsAdminInContext(ctx context.Context, isAdmin bool) context.Context {
	return appctx.Set(ctx, ContextKeyIsAdmin, isAdmin)
}

func SetSkipTenantScopeInContext(ctx context.Context, skip bool) context.Context {
	return appctx.Set(ctx, ContextKeySkipTenantScope, skip)
}
