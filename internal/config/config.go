package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI  string
	DBName    string
	JWTSecret string

	AccessTokenTTL time.Duration

	ImpersonateTTLDefault time.Duration
	ImpersonateTTLMin     time.Duration
	ImpersonateTTLMax     time.Duration

	AvatarEndpoint  string
	AvatarRegion    string
	AvatarAccessKey string
	AvatarSecretKey string
	AvatarBucket    string
	AvatarURLTTL    time.Duration

	LCSDBaseURL string
	LCSDDelay   time.Duration

	FrontendOrigin string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:  getEnvOrDefault("MONGO_URI", ""),
		DBName:    getEnvOrDefault("DB_NAME", "cursusdb"),
		JWTSecret: getEnvOrDefault("JWT_SECRET", ""),

		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", 24, time.Hour),

		ImpersonateTTLDefault: getDurationEnv("IMPERSONATE_TTL_DEFAULT_MINUTES", 120, time.Minute),
		ImpersonateTTLMin:     getDurationEnv("IMPERSONATE_TTL_MIN_MINUTES", 5, time.Minute),
		ImpersonateTTLMax:     getDurationEnv("IMPERSONATE_TTL_MAX_MINUTES", 240, time.Minute),

		AvatarEndpoint:  getEnvOrDefault("AVATAR_S3_ENDPOINT", ""),
		AvatarRegion:    getEnvOrDefault("AVATAR_S3_REGION", "us-east-1"),
		AvatarAccessKey: getEnvOrDefault("AVATAR_S3_ACCESS_KEY", ""),
		AvatarSecretKey: getEnvOrDefault("AVATAR_S3_SECRET_KEY", ""),
		AvatarBucket:    getEnvOrDefault("AVATAR_S3_BUCKET", "avatars"),
		AvatarURLTTL:    getDurationEnv("AVATAR_URL_TTL_MINUTES", 15, time.Minute),

		LCSDBaseURL: getEnvOrDefault("LCSD_BASE_URL", "https://www.lcsd.gov.hk/clpss/tc/webApp/Facility/Details.do"),
		LCSDDelay:   getDurationEnv("LCSD_DELAY_MS", 100, time.Millisecond),

		FrontendOrigin: getEnvOrDefault("FRONTEND_ORIGIN", "*"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
