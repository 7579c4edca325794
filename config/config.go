package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string

	StoreDriver string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string
	MongoURI    string
	MongoDB     string

	JWTSecret      string
	JWTExpiryHours int

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	PresenceRedis bool

	RateLimitRedis     bool
	AuthAttemptsPerMin int
	SendsPerMin        int

	BlobDriver       string
	UploadDir        string
	UploadMaxBytes   int64
	PublicUploadPath string
	S3Region         string
	S3Bucket         string
	S3AccessKey      string
	S3SecretKey      string
	S3Endpoint       string
	S3PublicBase     string

	WSLegacyBroadcast bool
	WSMaxEventsPerMin int
	RoomJoinAuthz     bool

	CORSOrigins []string
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"

	BlobDriverDisk   = "disk"
	BlobDriverS3     = "s3"
	BlobDriverGridFS = "gridfs"
)

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "5000"),
		AppMode: getEnv("APP_MODE", "debug"),

		StoreDriver: getEnv("STORE_DRIVER", StoreDriverPostgres),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "simple_chat"),
		DBPort:      getEnv("DB_PORT", "5432"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "simpleChatApp"),

		JWTSecret:      getEnv("JWT_SECRET", "change-me"),
		JWTExpiryHours: getEnvAsInt("JWT_EXPIRY_HOURS", 7*24),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		PresenceRedis: getEnvAsBool("PRESENCE_REDIS", false),

		RateLimitRedis:     getEnvAsBool("RATE_LIMIT_REDIS", false),
		AuthAttemptsPerMin: getEnvAsInt("AUTH_ATTEMPTS_PER_MIN", 10),
		SendsPerMin:        getEnvAsInt("SENDS_PER_MIN", 120),

		BlobDriver:       getEnv("BLOB_DRIVER", BlobDriverDisk),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		UploadMaxBytes:   int64(getEnvAsInt("UPLOAD_MAX_BYTES", 10<<20)),
		PublicUploadPath: getEnv("PUBLIC_UPLOAD_PATH", "/uploads"),
		S3Region:         getEnv("S3_REGION", ""),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:      getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3PublicBase:     getEnv("S3_PUBLIC_BASE", ""),

		WSLegacyBroadcast: getEnvAsBool("WS_LEGACY_BROADCAST", false),
		WSMaxEventsPerMin: getEnvAsInt("WS_MAX_EVENTS_PER_MIN", 0),
		RoomJoinAuthz:     getEnvAsBool("ROOM_JOIN_AUTHZ", false),

		CORSOrigins: getEnvAsList("CORS_ORIGINS", nil),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
