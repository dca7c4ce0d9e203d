package database

import (
	"database/sql"
	"log"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/snowstore/internal/models"
)

var db *gorm.DB

// Connect initializes the database connection and runs migrations.
func Connect(dsn, logLevel string) *gorm.DB {
	if db != nil {
		return db
	}

	conn, err := Open(dsn, logLevel)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := Migrate(conn); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	db = conn
	return db
}

// Open creates the target database when missing and returns a gorm handle
// without running migrations.
func Open(dsn, logLevel string) (*gorm.DB, error) {
	if err := ensureDatabase(dsn); err != nil {
		return nil, err
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(parseLogLevel(logLevel)),
	})
	if err != nil {
		return nil, err
	}

	warnOnLocale(conn)
	return conn, nil
}

// warnOnLocale flags databases whose character classification is not UTF-8.
// Case-insensitive catalog search folds with LOWER(), which only lowercases
// non-ASCII letters such as "Á" under a UTF-8 LC_CTYPE.
func warnOnLocale(conn *gorm.DB) {
	var ctype string
	if err := conn.Raw("SELECT datctype FROM pg_database WHERE datname = current_database()").Scan(&ctype).Error; err != nil {
		log.Printf("warning: could not read database locale: %v", err)
		return
	}
	if !unicodeCtype(ctype) {
		log.Printf("warning: database LC_CTYPE is %q, search will not fold non-ASCII letters; create it with a UTF-8 locale", ctype)
	}
}

func unicodeCtype(ctype string) bool {
	ctype = strings.ToLower(ctype)
	return strings.Contains(ctype, "utf8") || strings.Contains(ctype, "utf-8")
}

// Migrate brings the schema up to date with the models.
func Migrate(conn *gorm.DB) error {
	migrations := []interface{}{
		&models.User{},
		&models.Category{},
		&models.Brand{},
		&models.Product{},
		&models.ProductImage{},
		&models.PopupBanner{},
	}

	for _, migration := range migrations {
		if err := conn.AutoMigrate(migration); err != nil {
			return err
		}
	}

	return nil
}

func parseLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func ensureDatabase(dsn string) error {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return err
	}

	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" || dbName == "postgres" {
		return nil
	}

	parsed.Path = "/postgres"
	masterDSN := parsed.String()

	sqlDB, err := sql.Open("postgres", masterDSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	var exists bool
	if err := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists); err != nil {
		return err
	}

	if exists {
		return nil
	}

	_, err = sqlDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName))
	return err
}
