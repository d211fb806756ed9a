package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	db *gorm.DB
)

func GetDB() *gorm.DB {
	return db
}

// SetDB replaces the global handle. Used by ops tools and integration tests.
func SetDB(conn *gorm.DB) {
	db = conn
}

func init() {
	// Load env from .env
	godotenv.Load()
	// Do NOT block startup in init() waiting for DB; the HTTP port must open first.
}

// DatabaseDSN builds the MySQL DSN from DB_* env vars.
// DB_HOST=/cloudsql/<CONNECTION_NAME> switches to the Cloud SQL unix socket.
func DatabaseDSN() string {
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")

	network := "tcp"
	address := fmt.Sprintf("%s:%s", dbHost, dbPort)
	if strings.HasPrefix(dbHost, "/cloudsql/") {
		network = "unix"
		address = dbHost
	}

	return fmt.Sprintf("%s:%s@%s(%s)/%s?multiStatements=true&parseTime=true&loc=UTC",
		dbUser,
		dbPassword,
		network,
		address,
		dbName,
	)
}

// OpenDatabase opens dsn with the shared gorm config and plugins. It does not retry
// and does not touch the global handle.
func OpenDatabase(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(mysql.Open(dsn), initConfig())
	if err != nil {
		return nil, err
	}
	if pluginErr := conn.Use(otelgorm.NewPlugin()); pluginErr != nil {
		log.Printf("db connected but failed to install otelgorm plugin: %v", pluginErr)
	}
	if pluginErr := conn.Use(NewTenantGuardPlugin()); pluginErr != nil {
		return nil, fmt.Errorf("install tenant guard plugin: %w", pluginErr)
	}
	return conn, nil
}

// ConnectDatabaseWithRetry connects and sets the global DB.
// Call this from main() AFTER the HTTP server is listening.
func ConnectDatabaseWithRetry() {
	dsn := DatabaseDSN()

	var attempt int
	for {
		attempt++
		conn, err := OpenDatabase(dsn)
		if err == nil {
			tunePool(conn)
			db = conn
			log.Printf("connected to database (attempt=%d)", attempt)
			return
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to connect database (attempt=%d): %v; retrying in %s", attempt, err, sleep)
		time.Sleep(sleep)
	}
}

// Env overrides (optional):
// - DB_MAX_OPEN_CONNS (default 50)
// - DB_MAX_IDLE_CONNS (default 25)
// - DB_CONN_MAX_LIFETIME_SECONDS (default 300)
// - DB_CONN_MAX_IDLE_TIME_SECONDS (default 60)
func tunePool(conn *gorm.DB) {
	sqlDB, err := conn.DB()
	if err != nil || sqlDB == nil {
		return
	}
	maxOpen := intFromEnv("DB_MAX_OPEN_CONNS", 50)
	maxIdle := intFromEnv("DB_MAX_IDLE_CONNS", 25)
	connMaxLife := time.Duration(intFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second
	connMaxIdle := time.Duration(intFromEnv("DB_CONN_MAX_IDLE_TIME_SECONDS", 60)) * time.Second

	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle >= 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if connMaxLife > 0 {
		sqlDB.SetConnMaxLifetime(connMaxLife)
	}
	if connMaxIdle > 0 {
		sqlDB.SetConnMaxIdleTime(connMaxIdle)
	}
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         gormLogger(),
		NamingStrategy: initNamingStrategy(),
		// MySQL 1062 surfaces as gorm.ErrDuplicatedKey.
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// gormLogger writes to stdout at Error level, or to GORM_LOG at Info level when set.
func gormLogger() logger.Interface {
	if logFile := os.Getenv("GORM_LOG"); logFile != "" {
		if f, err := os.Create(logFile); err == nil {
			return logger.New(log.New(io.MultiWriter(f), "\r\n", log.LstdFlags), logger.Config{
				Colorful:      false,
				LogLevel:      logger.Info,
				SlowThreshold: time.Second,
			})
		}
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:      false,
			LogLevel:      logger.Error,
			SlowThreshold: time.Second,
		},
	)
}

func initNamingStrategy() *schema.NamingStrategy {
	return &schema.NamingStrategy{
		SingularTable: false,
		TablePrefix:   "",
	}
}
