package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/sessions"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/blog-api/config"
	"github.com/rpupo63/blog-api/models"
)

type Database struct {
	db       *gorm.DB
	userRepo *UserRepo
	postRepo *PostRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:       db,
		userRepo: NewUserRepo(db),
		postRepo: NewPostRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) UserRepo() *UserRepo {
	return d.userRepo
}

func (d Database) PostRepo() *PostRepo {
	return d.postRepo
}

// SessionStore returns a server-side session store sharing the database connection
func (d Database) SessionStore(options *sessions.Options, keyPairs ...[]byte) *SessionStore {
	return NewSessionStore(d.db, options, keyPairs...)
}

// Connect opens the configured database, registers read replicas and migrates the schema.
func Connect(settings config.Settings) (*gorm.DB, error) {
	logLevel := logger.Warn
	if !settings.IsProduction() {
		logLevel = logger.Info
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  !settings.IsProduction(),
		},
	)

	var dialector gorm.Dialector
	switch settings.DBType {
	case "postgres":
		dialector = postgres.New(postgres.Config{
			DSN:                  settings.DatabaseURL,
			PreferSimpleProtocol: true,
		})
	case "sqlite":
		dialector = sqlite.Open(settings.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", settings.DBType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt:    false,
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if settings.DBType == "sqlite" {
		// one writer at a time; also keeps in-memory databases on a single connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if len(settings.ReplicaURLs) > 0 && settings.DBType == "postgres" {
		replicas := make([]gorm.Dialector, 0, len(settings.ReplicaURLs))
		for _, dsn := range settings.ReplicaURLs {
			replicas = append(replicas, postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}))
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, fmt.Errorf("error registering read replicas: %w", err)
		}
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("error testing database connection: %w", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("error migrating models: %w", err)
	}

	return db, nil
}
