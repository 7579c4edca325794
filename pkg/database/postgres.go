package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mohanraja088/simple-chat-app-demo/config"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/file"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/group"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/message"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/user"
)

// Tables lists every table owned by the application, in creation order.
var Tables = []string{"users", "files", "groups", "direct_messages", "group_messages"}

func models() []interface{} {
	return []interface{}{
		&user.User{},
		&file.File{},
		&group.Group{},
		&message.DirectMessage{},
		&message.GroupMessage{},
	}
}

// ConnectPostgres opens the gorm connection described by cfg.
func ConnectPostgres(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	logMode := logger.Warn
	if cfg.AppMode == "debug" {
		logMode = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logMode),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get generic database object: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Database connection established")
	return db, nil
}

// AutoMigrate creates or updates every table from the domain entities.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	// Containment lookups on the member list.
	return db.Exec(`CREATE INDEX IF NOT EXISTS idx_groups_members ON groups USING GIN (members)`).Error
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func TableExists(db *gorm.DB, table string) bool {
	return db.Migrator().HasTable(table)
}

func TableCount(db *gorm.DB, table string) (int64, error) {
	var count int64
	err := db.Table(table).Count(&count).Error
	return count, err
}

// TruncateAll empties every application table.
func TruncateAll(db *gorm.DB) error {
	for i := len(Tables) - 1; i >= 0; i-- {
		if err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", Tables[i])).Error; err != nil {
			return fmt.Errorf("truncate %s: %w", Tables[i], err)
		}
	}
	return nil
}

// DropAll removes every application table.
func DropAll(db *gorm.DB) error {
	return db.Migrator().DropTable(models()...)
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
