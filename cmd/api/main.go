package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/mohanraja088/simple-chat-app-demo/config"
	"github.com/mohanraja088/simple-chat-app-demo/internal/app"
	"github.com/mohanraja088/simple-chat-app-demo/internal/redis"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository/memory"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository/mongostore"
	"github.com/mohanraja088/simple-chat-app-demo/internal/server"
	"github.com/mohanraja088/simple-chat-app-demo/internal/storage"
	"github.com/mohanraja088/simple-chat-app-demo/pkg/database"
	"github.com/mohanraja088/simple-chat-app-demo/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)
	defer l.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mongoClient *database.MongoClient
	connectMongo := func() *database.MongoClient {
		if mongoClient == nil {
			mc, err := database.ConnectMongo(cfg)
			if err != nil {
				log.Fatalf("Failed to connect to MongoDB: %v", err)
			}
			mongoClient = mc
		}
		return mongoClient
	}
	defer func() {
		if mongoClient != nil {
			_ = mongoClient.Close(context.Background())
		}
	}()

	var store repository.Store
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		l.Warnf("Using the in-memory store; data is lost on restart")
		store = memory.New().Gateway()
	case config.StoreDriverMongo:
		ms := mongostore.New(connectMongo().Database)
		if err := ms.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to create MongoDB indexes: %v", err)
		}
		store = ms.Gateway()
	default:
		db, err := database.ConnectPostgres(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close(db)
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to apply GORM migrations: %v", err)
		}
		store = repository.NewPostgresStore(db)
	}

	var blobs storage.BlobStore
	switch cfg.BlobDriver {
	case config.BlobDriverS3:
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: cfg.S3PublicBase,
		})
		if err != nil {
			log.Fatalf("Failed to configure S3: %v", err)
		}
		blobs = s3Store
	case config.BlobDriverGridFS:
		blobs = storage.NewGridFSStore(connectMongo().GridFS)
	default:
		disk, err := storage.NewDiskStore(cfg.UploadDir)
		if err != nil {
			log.Fatalf("Failed to prepare upload dir: %v", err)
		}
		blobs = disk
	}

	backends := app.Backends{
		Store:  store,
		Blobs:  blobs,
		Health: map[string]server.HealthCheck{},
	}

	if cfg.PresenceRedis || cfg.RateLimitRedis {
		rdb, err := redis.NewClient(ctx, redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		backends.Health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

		if cfg.PresenceRedis {
			presence := redis.NewPresenceStore(rdb, 24*time.Hour)
			// no connection survives a restart
			if err := presence.Reset(ctx); err != nil {
				l.Warnf("Failed to reset presence: %v", err)
			}
			backends.PresenceMirror = presence
		}
		if cfg.RateLimitRedis {
			backends.Limiter = redis.NewRateLimiter(rdb, rateLimitConfig(cfg))
		}
	}

	a := app.New(ctx, cfg, l, backends)
	l.Logger.Info("chat server configured",
		zap.String("store", cfg.StoreDriver),
		zap.String("blobs", cfg.BlobDriver),
		zap.Bool("legacy_broadcast", cfg.WSLegacyBroadcast),
		zap.Bool("room_join_authz", cfg.RoomJoinAuthz),
	)

	if err := a.Server.Start(); err != nil {
		l.Errorf("Server stopped with error: %v", err)
	}
}

func rateLimitConfig(cfg *config.Config) redis.RateLimitConfig {
	rl := redis.DefaultRateLimitConfig()
	if cfg.AuthAttemptsPerMin > 0 {
		rl.AuthLimit = cfg.AuthAttemptsPerMin
	}
	if cfg.SendsPerMin > 0 {
		rl.SendLimit = cfg.SendsPerMin
	}
	return rl
}
