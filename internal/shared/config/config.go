package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string
	DatabaseURL     string
	JWTSecret       string

	ObjectStoreType      string
	LocalStoreDir        string
	LocalStoreBaseURL    string
	LocalStoreSigningKey string

	S3AccessKey           string
	S3SecretKey           string
	S3Region              string
	S3EndpointURL         string
	S3AddressingStyle     string
	S3AvatarBucket        string
	S3AuthUploadsBucket   string
	S3PublicURLPrefix     string
	S3UploadsStorageClass string
	S3KeyPrefix           string
	S3KMSKeyID            string
	S3SkipProxy           bool
	MinioUseSSL           bool

	EnableGravatar   bool
	DefaultAvatarURI string
	StaticURLPrefix  string
	AvatarSalt       string
	TutorialEnabled  bool

	MaxFileUploadSizeMiB int
	MaxEmojiFileSizeMiB  int
	MaxAvatarFileSizeMiB int
}

// ConfigError reports a required setting that is missing or malformed.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience; real env wins.
	for _, path := range []string{".env", "cmd/.env"} {
		_ = godotenv.Load(path)
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSecret:       getEnv("JWT_SECRET", ""),

		ObjectStoreType:      normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:        getEnv("LOCAL_STORE_DIR", "./data"),
		LocalStoreBaseURL:    getEnv("LOCAL_STORE_BASE_URL", "http://localhost:8080/local-objects"),
		LocalStoreSigningKey: getEnv("LOCAL_STORE_SIGNING_KEY", ""),

		S3AccessKey:           getEnv("S3_KEY", ""),
		S3SecretKey:           getEnv("S3_SECRET_KEY", ""),
		S3Region:              getEnv("S3_REGION", ""),
		S3EndpointURL:         getEnv("S3_ENDPOINT_URL", ""),
		S3AddressingStyle:     normalizeAddressingStyle(getEnv("S3_ADDRESSING_STYLE", "auto")),
		S3AvatarBucket:        getEnv("S3_AVATAR_BUCKET", ""),
		S3AuthUploadsBucket:   getEnv("S3_AUTH_UPLOADS_BUCKET", ""),
		S3PublicURLPrefix:     getEnv("S3_AVATAR_PUBLIC_URL_PREFIX", ""),
		S3UploadsStorageClass: getEnv("S3_UPLOADS_STORAGE_CLASS", "STANDARD"),
		S3KeyPrefix:           getEnv("S3_KEY_PREFIX", ""),
		S3KMSKeyID:            getEnv("S3_SSE_KMS_KEY_ID", ""),
		S3SkipProxy:           getBool("S3_SKIP_PROXY", false),
		MinioUseSSL:           getBool("MINIO_USE_SSL", true),

		EnableGravatar:   getBool("ENABLE_GRAVATAR", true),
		DefaultAvatarURI: getEnv("DEFAULT_AVATAR_URI", ""),
		StaticURLPrefix:  withTrailingSlash(getEnv("STATIC_URL_PREFIX", "/static/")),
		AvatarSalt:       getEnv("AVATAR_SALT", ""),
		TutorialEnabled:  getBool("TUTORIAL_ENABLED", true),

		MaxFileUploadSizeMiB: getInt("MAX_FILE_UPLOAD_SIZE_MIB", 100),
		MaxEmojiFileSizeMiB:  getInt("MAX_EMOJI_FILE_SIZE_MIB", 5),
		MaxAvatarFileSizeMiB: getInt("MAX_AVATAR_FILE_SIZE_MIB", 5),
	}
}

// Validate checks the settings a process cannot start without.
func (c Config) Validate() error {
	if c.Env == "production" {
		if c.DatabaseURL == "" {
			return &ConfigError{Key: "DATABASE_URL", Reason: "required in production"}
		}
		if c.JWTSecret == "" {
			return &ConfigError{Key: "JWT_SECRET", Reason: "required in production"}
		}
		if c.AvatarSalt == "" {
			return &ConfigError{Key: "AVATAR_SALT", Reason: "required in production"}
		}
	}
	switch c.ObjectStoreType {
	case "s3", "minio":
		if c.S3AvatarBucket == "" {
			return &ConfigError{Key: "S3_AVATAR_BUCKET", Reason: "required for " + c.ObjectStoreType}
		}
		if c.S3AuthUploadsBucket == "" {
			return &ConfigError{Key: "S3_AUTH_UPLOADS_BUCKET", Reason: "required for " + c.ObjectStoreType}
		}
		if (c.S3AccessKey == "") != (c.S3SecretKey == "") {
			return &ConfigError{Key: "S3_KEY", Reason: "S3_KEY and S3_SECRET_KEY must be set together"}
		}
		if c.ObjectStoreType == "minio" && c.S3EndpointURL == "" {
			return &ConfigError{Key: "S3_ENDPOINT_URL", Reason: "required for minio"}
		}
	case "local":
		if c.LocalStoreDir == "" {
			return &ConfigError{Key: "LOCAL_STORE_DIR", Reason: "required for local store"}
		}
	}
	if c.MaxFileUploadSizeMiB < 0 {
		return &ConfigError{Key: "MAX_FILE_UPLOAD_SIZE_MIB", Reason: "must not be negative"}
	}
	return nil
}

// MaxFileUploadBytes is the attachment size limit in bytes. Zero means the default.
func (c Config) MaxFileUploadBytes() int64 { return mib(c.MaxFileUploadSizeMiB, 100) }

// MaxAvatarBytes is the avatar and realm branding size limit in bytes.
func (c Config) MaxAvatarBytes() int64 { return mib(c.MaxAvatarFileSizeMiB, 5) }

// MaxEmojiBytes is the custom emoji size limit in bytes.
func (c Config) MaxEmojiBytes() int64 { return mib(c.MaxEmojiFileSizeMiB, 5) }

func mib(n, def int) int64 {
	if n <= 0 {
		n = def
	}
	return int64(n) << 20
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func withTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}

func normalizeAddressingStyle(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "path":
		return "path"
	case "virtual":
		return "virtual"
	default:
		return "auto"
	}
}
