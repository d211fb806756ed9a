package syncapi

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/bizbooks_backend/config"
	"github.com/mmdatafocus/bizbooks_backend/models"
	"github.com/mmdatafocus/bizbooks_backend/offlinesync"
	"github.com/mmdatafocus/bizbooks_backend/utils"
)

var errCompanyRequired = errors.New("company_id is required")

// UserResolver returns the authenticated caller of a request context.
type UserResolver func(ctx context.Context) (*models.User, error)

// CurrentUser resolves the caller placed in context by the session or bearer middleware.
func CurrentUser(ctx context.Context) (*models.User, error) {
	if username, ok := utils.GetUsernameFromContext(ctx); ok && strings.TrimSpace(username) != "" {
		return models.GetUserByUsername(ctx, username)
	}
	if userId, ok := utils.GetUserIdFromContext(ctx); ok && userId > 0 {
		return models.GetUserById(ctx, userId)
	}
	return nil, utils.ErrorUnauthorized
}

// ClaimsUser builds the caller from bearer token claims alone. It serves
// SYNC_STORE_DRIVER=memory, where no users table is connected; session tokens
// are not accepted there.
func ClaimsUser(ctx context.Context) (*models.User, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId <= 0 {
		return nil, utils.ErrorUnauthorized
	}
	user := &models.User{ID: userId, Role: models.UserRoleCashier}
	if isAdmin, _ := utils.GetIsAdminFromContext(ctx); isAdmin {
		user.Role = models.UserRoleAdmin
	}
	user.CompanyId, _ = utils.GetCompanyIdFromContext(ctx)
	return user, nil
}

// DefaultUserResolver looks callers up in the users table, or trusts the token
// claims when the sync stores run in memory.
func DefaultUserResolver() UserResolver {
	if config.SyncStoreDriver() == config.SyncStoreMemory {
		return ClaimsUser
	}
	return CurrentUser
}

// resolveScope picks the company from the x-company-id header or company_id query,
// defaulting to the caller's own. Admins may act on any company, others only on theirs.
func (a *API) resolveScope(c *gin.Context) (offlinesync.Scope, error) {
	user, err := a.currentUser(c.Request.Context())
	if err != nil || user == nil {
		return offlinesync.Scope{}, utils.ErrorUnauthorized
	}
	if user.IsActive != nil && !*user.IsActive {
		return offlinesync.Scope{}, utils.ErrorUnauthorized
	}

	companyId := strings.TrimSpace(c.GetHeader("x-company-id"))
	if companyId == "" {
		companyId = strings.TrimSpace(c.Query("company_id"))
	}
	if companyId == "" {
		companyId = strings.TrimSpace(user.CompanyId)
	}
	if companyId == "" {
		return offlinesync.Scope{}, errCompanyRequired
	}
	if companyId != user.CompanyId && !user.IsAdmin() {
		return offlinesync.Scope{}, utils.ErrorUnauthorized
	}

	ctx := utils.SetCompanyIdInContext(c.Request.Context(), companyId)
	ctx = utils.SetUserIdInContext(ctx, user.ID)
	ctx = utils.SetIsAdminInContext(ctx, user.IsAdmin())
	c.Request = c.Request.WithContext(ctx)

	return offlinesync.Scope{UserId: user.ID, CompanyId: companyId}, nil
}
