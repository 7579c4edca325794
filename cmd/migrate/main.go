package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/mohanraja088/simple-chat-app-demo/config"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository/mongostore"
	"github.com/mohanraja088/simple-chat-app-demo/pkg/database"
)

const usage = `
Simple Chat - Database CLI Tool

Usage:
  migrate [flags] [command]

Commands:
  up          Create tables (postgres) or indexes (mongo)
  down        Drop all tables (postgres)
  status      Show database connection status and row counts
  seed-dev    Seed with development/test users, a conversation and a group
  reset       Drop all tables and recreate them (DANGEROUS)
  truncate    Truncate all tables (DANGEROUS)

Flags:
  -password string   Password for seeded users (default "Password@123")
  -users int         Number of seeded users, at most 6 (default 3)
  -no-group          Do not seed a group

STORE_DRIVER selects postgres (default) or mongo.

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go -users 4 seed-dev
  STORE_DRIVER=mongo go run cmd/migrate/main.go up
`

func main() {
	defaults := database.DefaultSeedConfig()
	password := flag.String("password", defaults.Password, "Password for seeded users")
	userCount := flag.Int("users", defaults.TestUserCount, "Number of seeded users")
	noGroup := flag.Bool("no-group", false, "Do not seed a group")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	cfg := config.LoadConfig()
	ctx := context.Background()

	if cfg.StoreDriver == config.StoreDriverMongo {
		runMongo(ctx, cfg, command, &database.SeedConfig{
			Password:      *password,
			TestUserCount: *userCount,
			WithGroup:     !*noGroup,
		})
		return
	}

	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer database.Close(db)

	switch command {
	case "up":
		runMigrationsUp(db)
	case "down":
		runMigrationsDown(db)
	case "status":
		showStatus(ctx, db)
	case "seed-dev":
		runSeedDevelopment(ctx, repository.NewPostgresStore(db), &database.SeedConfig{
			Password:      *password,
			TestUserCount: *userCount,
			WithGroup:     !*noGroup,
		})
	case "reset":
		runReset(db)
	case "truncate":
		runTruncate(db)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp(db *gorm.DB) {
	log.Println("🚀 Running migrations UP...")

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ Migrations completed successfully!")
}

func runMigrationsDown(db *gorm.DB) {
	log.Println("⬇️  Dropping all tables...")

	if err := database.DropAll(db); err != nil {
		log.Fatalf("❌ Rollback failed: %v", err)
	}

	log.Println("✅ Rollback completed successfully!")
}

func showStatus(ctx context.Context, db *gorm.DB) {
	log.Println("🔍 Checking database status...")

	if err := database.Ping(ctx, db); err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	log.Println("✅ Database connection: OK")

	for _, table := range database.Tables {
		if !database.TableExists(db, table) {
			log.Printf("❌ Table %-20s does not exist", table)
			continue
		}
		count, err := database.TableCount(db, table)
		if err != nil {
			log.Printf("⚠️  Error counting table %s: %v", table, err)
			continue
		}
		log.Printf("✅ Table %-20s exists (%d rows)", table, count)
	}
}

func runSeedDevelopment(ctx context.Context, store repository.Store, seed *database.SeedConfig) {
	log.Println("🌱 Seeding database (development mode)...")

	result, err := database.SeedDevelopment(ctx, store, seed)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("📊 Seed Summary:")
	for _, u := range result.Users {
		log.Printf("   - User: %s (ID: %s)", u.Email, u.ID)
	}
	if result.Group != nil {
		log.Printf("   - Group: %s (%d members)", result.Group.Name, len(result.Group.Members))
	}
	log.Printf("   - Messages: %d", len(result.Messages))
	log.Println("✅ Development seeding completed!")
}

func runReset(db *gorm.DB) {
	log.Println("⚠️  WARNING: This will DROP all tables and recreate them!")

	log.Println("🗑️  Dropping all tables...")
	if err := database.DropAll(db); err != nil {
		log.Fatalf("❌ Failed to drop tables: %v", err)
	}

	log.Println("🚀 Running migrations...")
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ Database reset completed!")
}

func runTruncate(db *gorm.DB) {
	log.Println("⚠️  WARNING: This will TRUNCATE all tables!")

	if err := database.TruncateAll(db); err != nil {
		log.Fatalf("❌ Truncate failed: %v", err)
	}

	log.Println("✅ All tables truncated!")
}

func runMongo(ctx context.Context, cfg *config.Config, command string, seed *database.SeedConfig) {
	mc, err := database.ConnectMongo(cfg)
	if err != nil {
		log.Fatalf("❌ MongoDB connection failed: %v", err)
	}
	defer mc.Close(ctx)

	store := mongostore.New(mc.Database)
	switch command {
	case "up":
		log.Println("🚀 Creating MongoDB indexes...")
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Fatalf("❌ Index creation failed: %v", err)
		}
		log.Println("✅ Indexes created successfully!")
	case "status":
		log.Println("🔍 Checking MongoDB status...")
		if err := store.Gateway().Ping(ctx); err != nil {
			log.Fatalf("❌ MongoDB connection failed: %v", err)
		}
		log.Println("✅ MongoDB connection: OK")
	case "seed-dev":
		runSeedDevelopment(ctx, store.Gateway(), seed)
	default:
		log.Fatalf("❌ Command %q is not supported with STORE_DRIVER=mongo", command)
	}
}
