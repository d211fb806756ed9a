package syncapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/bizbooks_backend/config"
	"github.com/mmdatafocus/bizbooks_backend/offlinesync"
	"github.com/mmdatafocus/bizbooks_backend/utils"
	"github.com/sirupsen/logrus"
)

// API exposes the offline sync service over HTTP.
type API struct {
	svc         *offlinesync.Service
	currentUser UserResolver
	phoneRegion string
	logger      *logrus.Logger
}

func NewAPI(svc *offlinesync.Service, users UserResolver) *API {
	if users == nil {
		users = DefaultUserResolver()
	}
	return &API{
		svc:         svc,
		currentUser: users,
		phoneRegion: config.DefaultPhoneRegion(),
		logger:      config.GetLogger(),
	}
}

func (a *API) Register(r gin.IRoutes) {
	r.POST("/api/sync/operations", a.EnqueueHandler())
	r.POST("/api/sync/operations/batch", a.EnqueueBatchHandler())
	r.GET("/api/sync/operations/pending", a.PendingHandler())
	r.POST("/api/sync/run", a.RunHandler())
	r.GET("/api/sync/status", a.StatusHandler())
	r.GET("/api/sync/conflicts", a.ConflictsHandler())
	r.POST("/api/sync/conflicts/:id/resolve", a.ResolveHandler())
}

func (a *API) EnqueueHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, err := a.resolveScope(c)
		if err != nil {
			writeError(c, err)
			return
		}

		var req OperationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		if fieldErrs := a.validatePayload("", &req); len(fieldErrs) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrs})
			return
		}

		deviceId, _ := utils.GetDeviceIdFromContext(c.Request.Context())
		id, err := a.svc.Enqueue(c.Request.Context(), scope, req.toNewOperation(deviceId))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, EnqueueResponse{Id: id})
	}
}

func (a *API) EnqueueBatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, err := a.resolveScope(c)
		if err != nil {
			writeError(c, err)
			return
		}

		var req BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}

		deviceId, _ := utils.GetDeviceIdFromContext(c.Request.Context())
		fieldErrs := make(map[string]string)
		ops := make([]offlinesync.NewOperation, 0, len(req.Operations))
		for i := range req.Operations {
			prefix := "Operations[" + strconv.Itoa(i) + "]."
			for k, v := range a.validatePayload(prefix, &req.Operations[i]) {
				fieldErrs[k] = v
			}
			ops = append(ops, req.Operations[i].toNewOperation(deviceId))
		}
		if len(fieldErrs) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrs})
			return
		}

		ids, err := a.svc.EnqueueBatch(c.Request.Context(), scope, ops)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, BatchResponse{Ids: ids})
	}
}

func (a *API) PendingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, err := a.resolveScope(c)
		if err != nil {
			writeError(c, err)
			return
		}
		ops, err := a.svc.ListPending(c.Request.Context(), scope)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, OperationsResponse{Operations: nonNil(ops)})
	}
}

func (a *API) RunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, err := a.resolveScope(c)
		if err != nil {
			writeError(c, err)
			return
		}
		result, err := a.svc.RunSync(c.Request.Context(), scope)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func (a *API) StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, err := a.resolveScope(c)
		if err != nil {
			writeError(c, err)
			return
		}
		counts, err := a.svc.Status(c.Request.Context(), scope)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, counts)
	}
}

func (a *API) ConflictsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, err := a.resolveScope(c)
		if err != nil {
			writeError(c, err)
			return
		}
		ops, err := a.svc.ListConflicts(c.Request.Context(), scope)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, OperationsResponse{Operations: nonNil(ops)})
	}
}

func (a *API) ResolveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, err := a.resolveScope(c)
		if err != nil {
			writeError(c, err)
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": map[string]string{"id": "invalid"}})
			return
		}
		var req ResolveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}

		fieldErrs, err := a.validateMergedData(c, scope, id, &req)
		if errors.Is(err, offlinesync.ErrOperationNotFound) {
			c.JSON(http.StatusOK, ResolveResponse{Resolved: false})
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}
		if len(fieldErrs) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrs})
			return
		}

		resolved, err := a.svc.Resolve(c.Request.Context(), scope, id, offlinesync.Resolution(req.Resolution), offlinesync.Record(req.MergedData))
		if err != nil {
			if errors.Is(err, offlinesync.ErrInvalidResolution) || errors.Is(err, offlinesync.ErrStorage) {
				writeError(c, err)
				return
			}
			a.logger.WithFields(logrus.Fields{
				"field":        "syncapi",
				"user_id":      scope.UserId,
				"company_id":   scope.CompanyId,
				"operation_id": id,
			}).Warn("resolve re-drive failed: " + err.Error())
			c.JSON(http.StatusUnprocessableEntity, ResolveResponse{Resolved: false, Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, ResolveResponse{Resolved: resolved})
	}
}

// validatePayload checks customer phone fields against the default region and
// normalises valid numbers to E.164 in place.
func (a *API) validatePayload(prefix string, req *OperationRequest) map[string]string {
	if req.Operation == string(offlinesync.OperationDelete) {
		return map[string]string{}
	}
	return a.normalizePhones(prefix+"Data.", req.TableName, req.Data)
}

// validateMergedData applies the same phone rules to merged_data, using the
// table of the conflicted operation.
func (a *API) validateMergedData(c *gin.Context, scope offlinesync.Scope, id int, req *ResolveRequest) (map[string]string, error) {
	if req.Resolution != string(offlinesync.ResolutionMerge) || len(req.MergedData) == 0 {
		return nil, nil
	}
	op, err := a.svc.GetOperation(c.Request.Context(), scope, id)
	if err != nil {
		return nil, err
	}
	return a.normalizePhones("MergedData.", op.TableName, req.MergedData), nil
}

func (a *API) normalizePhones(prefix, tableName string, data map[string]any) map[string]string {
	fieldErrs := make(map[string]string)
	if offlinesync.ParseEntityKind(tableName) != offlinesync.EntityCustomer {
		return fieldErrs
	}
	for _, key := range []string{"phone", "mobile"} {
		raw, ok := data[key].(string)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		normalized, err := utils.NormalizePhoneNumber(raw, a.phoneRegion)
		if err != nil {
			fieldErrs[prefix+key] = "phone"
			continue
		}
		data[key] = normalized
	}
	return fieldErrs
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, utils.ErrorUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, errCompanyRequired), errors.Is(err, offlinesync.ErrInvalidResolution):
		status = http.StatusBadRequest
	case errors.Is(err, offlinesync.ErrTooManyOperations):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, offlinesync.ErrSyncInProgress):
		status = http.StatusConflict
	case errors.Is(err, offlinesync.ErrStorage):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		config.LogError(config.GetLogger(), "syncapi", c.FullPath(), "request failed", nil, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func nonNil(ops []*offlinesync.Operation) []*offlinesync.Operation {
	if ops == nil {
		return []*offlinesync.Operation{}
	}
	return ops
}
