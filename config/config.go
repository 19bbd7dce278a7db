package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	Env          string

	JWTSecret      string
	TokenTTL       time.Duration
	RequestTimeout time.Duration

	Meetings MeetingConfig
	Mail     MailConfig
	RedisURL string
	Minio    MinioConfig
	Cloud    CloudinaryConfig
}

// MeetingConfig holds the credentials for the meeting link providers
type MeetingConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string

	ZoomAPIKey    string
	ZoomAPISecret string
	ZoomAccountID string

	PlaceholderLinks bool
	ProviderTimeout  time.Duration
}

// MailConfig holds the sendgrid settings
type MailConfig struct {
	SendgridAPIKey string
	FromAddress    string
	FromName       string
}

// MinioConfig holds the object storage settings for attachments
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// CloudinaryConfig holds the cloudinary settings for attachments
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// New sets up all config related services
func New() *Config {
	env := getEnv("ENV", "production")

	//setup zap logger and replace default logger
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:            os.Getenv("DB_URI"),
		DatabaseName:   os.Getenv("DB_NAME"),
		BaseURL:        os.Getenv("BASE_URL"),
		Port:           getEnv("PORT", "8080"),
		Env:            env,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       time.Duration(getEnvInt("TOKEN_TTL_MINUTES", 30)) * time.Minute,
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		Meetings: MeetingConfig{
			GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			GoogleRefreshToken: os.Getenv("GOOGLE_REFRESH_TOKEN"),
			ZoomAPIKey:         os.Getenv("ZOOM_API_KEY"),
			ZoomAPISecret:      os.Getenv("ZOOM_API_SECRET"),
			ZoomAccountID:      os.Getenv("ZOOM_ACCOUNT_ID"),
			PlaceholderLinks:   getEnvBool("MEETING_PLACEHOLDER_LINKS", false),
			ProviderTimeout:    time.Duration(getEnvInt("MEETING_PROVIDER_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Mail: MailConfig{
			SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			FromAddress:    getEnv("MAIL_FROM_ADDRESS", "no-reply@jai.legal"),
			FromName:       getEnv("MAIL_FROM_NAME", "J.A.I"),
		},
		RedisURL: os.Getenv("REDIS_URL"),
		Minio: MinioConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "attachments"),
			Region:    getEnv("MINIO_REGION", "us-east-1"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Cloud: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    getEnv("CLOUDINARY_FOLDER", "jai/attachments"),
		},
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().Errorw(message, "status", httpStatusCode, "error", err)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
