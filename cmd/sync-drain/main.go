package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mmdatafocus/bizbooks_backend/config"
	"github.com/mmdatafocus/bizbooks_backend/models"
	"github.com/mmdatafocus/bizbooks_backend/offlinesync"
	"github.com/mmdatafocus/bizbooks_backend/syncapi"
	"github.com/mmdatafocus/bizbooks_backend/utils"
	"github.com/sirupsen/logrus"
)

// Drains the pending sync queue of one (user, company) from the terminal,
// or prints its status counts with -status-only.
func main() {
	userID := flag.Int("user-id", 0, "Required: users.id owning the queue")
	companyID := flag.String("company-id", "", "Required: company id")
	statusOnly := flag.Bool("status-only", false, "Print status counts without running a pass")
	skipMigrate := flag.Bool("skip-migrate", false, "Do not run AutoMigrate before the pass")
	flag.Parse()

	if *userID <= 0 || strings.TrimSpace(*companyID) == "" {
		fmt.Fprintln(os.Stderr, "--user-id and --company-id are required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	if config.SyncPassLockEnabled() {
		config.ConnectRedisWithRetry()
	}
	defer config.ClosePubSub()

	if !*skipMigrate {
		if err := models.Migrate(db); err != nil {
			fmt.Fprintf(os.Stderr, "migrate failed: %v\n", err)
			os.Exit(1)
		}
	}

	correlationID := uuid.NewString()
	ctx := utils.SetCorrelationIdInContext(context.Background(), correlationID)
	ctx = utils.SetCompanyIdInContext(ctx, *companyID)
	scope := offlinesync.Scope{UserId: *userID, CompanyId: strings.TrimSpace(*companyID)}
	svc := syncapi.BuildGormService(db)

	logger := config.GetLogger().WithFields(logrus.Fields{
		"field":          "sync-drain",
		"user_id":        scope.UserId,
		"company_id":     scope.CompanyId,
		"correlation_id": correlationID,
	})

	var out any
	if *statusOnly {
		counts, err := svc.Status(ctx, scope)
		if err != nil {
			logger.Error("status failed: " + err.Error())
			os.Exit(1)
		}
		out = counts
	} else {
		result, err := svc.RunSync(ctx, scope)
		if err != nil {
			logger.Error("sync pass failed: " + err.Error())
			os.Exit(1)
		}
		logger.WithFields(logrus.Fields{
			"synced":    result.Synced,
			"failed":    result.Failed,
			"conflicts": result.Conflicts,
		}).Info("sync pass finished")
		out = result
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
