package main

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// setReadCommitted retries until the session isolation level is applied.
// Entity updates lock rows with SELECT ... FOR UPDATE and expect READ COMMITTED.
func setReadCommitted(db *gorm.DB, logger *logrus.Logger) {
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			return
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}
}
