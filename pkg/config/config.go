package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Camera     CameraConfig
	Sensor     SensorConfig
	Classifier ClassifierConfig
	Capture    CaptureConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NATS       NATSConfig
	Archive    ArchiveConfig
	Dynamo     DynamoConfig
	CloudWatch CloudWatchConfig
	Security   SecurityConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type CameraConfig struct {
	StreamURL    string
	SnapshotURL  string
	MaxFrameAge  time.Duration
	DialTimeout  time.Duration
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

type SensorConfig struct {
	TemperaturePath string
	HumidityPath    string
	PollInterval    time.Duration
	MaxAttempts     int
	RetryBackoff    time.Duration
}

type ClassifierConfig struct {
	BaseURL        string
	LabelsPath     string
	RequestTimeout time.Duration
}

type CaptureConfig struct {
	UploadsDir       string
	CapturesDir      string
	DailyCapturesDir string
	DailyHour        int
	DailyEnabled     bool
	TickInterval     time.Duration
	AlertThreshold   float64
	MaxUploadBytes   int64
	RateLimitPerMin  int
	ListLimit        int
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

type NATSConfig struct {
	Enabled bool
	URL     string
	Subject string
}

type ArchiveConfig struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
}

type DynamoConfig struct {
	Enabled         bool
	Table           string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type CloudWatchConfig struct {
	MetricsEnabled       bool
	MetricsNamespace     string
	MetricsBufferSize    int
	MetricsFlushInterval time.Duration
	LogsEnabled          bool
	LogGroupName         string
	LogStreamName        string
	LogsBufferSize       int
	LogsFlushInterval    time.Duration
	Region               string
	Endpoint             string
	AccessKeyID          string
	SecretAccessKey      string
}

type SecurityConfig struct {
	AllowedOrigins []string
	AuthEnabled    bool
	AuthToken      string
}

func Load() (*Config, error) {
	// Ignore a missing .env file; real deployments use systemd environment.
	_ = godotenv.Load()

	pollInterval, err := time.ParseDuration(getEnv("SENSOR_POLL_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SENSOR_POLL_INTERVAL: %w", err)
	}

	tickInterval, err := time.ParseDuration(getEnv("DAILY_TICK_INTERVAL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DAILY_TICK_INTERVAL: %w", err)
	}

	classifierTimeout, err := time.ParseDuration(getEnv("CLASSIFIER_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLASSIFIER_TIMEOUT: %w", err)
	}

	maxFrameAge, err := time.ParseDuration(getEnv("CAMERA_MAX_FRAME_AGE", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CAMERA_MAX_FRAME_AGE: %w", err)
	}

	dailyHour, err := strconv.Atoi(getEnv("DAILY_CAPTURE_HOUR", "8"))
	if err != nil || dailyHour < 0 || dailyHour > 23 {
		return nil, fmt.Errorf("invalid DAILY_CAPTURE_HOUR: must be 0-23")
	}

	alertThreshold, err := strconv.ParseFloat(getEnv("ALERT_THRESHOLD", "0.6"), 64)
	if err != nil || alertThreshold < 0 || alertThreshold > 1 {
		return nil, fmt.Errorf("invalid ALERT_THRESHOLD: must be within [0,1]")
	}

	maxUploadMB, err := strconv.Atoi(getEnv("UPLOAD_MAX_MB", "16"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_MB: %w", err)
	}

	redisTTL, err := time.ParseDuration(getEnv("REDIS_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_TTL: %w", err)
	}

	cwMetricsFlush, err := time.ParseDuration(getEnv("CLOUDWATCH_METRICS_FLUSH_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_METRICS_FLUSH_INTERVAL: %w", err)
	}

	cwLogsFlush, err := time.ParseDuration(getEnv("CLOUDWATCH_LOGS_FLUSH_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_LOGS_FLUSH_INTERVAL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    0, // streaming endpoints (MJPEG) must not be cut off
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Camera: CameraConfig{
			StreamURL:    getEnv("CAMERA_STREAM_URL", "http://127.0.0.1:8081/stream"),
			SnapshotURL:  getEnv("CAMERA_SNAPSHOT_URL", ""),
			MaxFrameAge:  maxFrameAge,
			DialTimeout:  5 * time.Second,
			ReconnectMin: time.Second,
			ReconnectMax: 30 * time.Second,
		},
		Sensor: SensorConfig{
			TemperaturePath: getEnv("SENSOR_TEMPERATURE_PATH", "/sys/bus/iio/devices/iio:device0/in_temp_input"),
			HumidityPath:    getEnv("SENSOR_HUMIDITY_PATH", "/sys/bus/iio/devices/iio:device0/in_humidityrelative_input"),
			PollInterval:    pollInterval,
			MaxAttempts:     3,
			RetryBackoff:    time.Second,
		},
		Classifier: ClassifierConfig{
			BaseURL:        getEnv("CLASSIFIER_URL", "http://127.0.0.1:9090"),
			LabelsPath:     getEnv("CLASSIFIER_LABELS_PATH", "labels.txt"),
			RequestTimeout: classifierTimeout,
		},
		Capture: CaptureConfig{
			UploadsDir:       getEnv("UPLOAD_FOLDER", "uploads"),
			CapturesDir:      getEnv("CAPTURE_FOLDER", "captures"),
			DailyCapturesDir: getEnv("DAILY_CAPTURE_FOLDER", "daily_captures"),
			DailyHour:        dailyHour,
			DailyEnabled:     getEnvBool("DAILY_CAPTURE_ENABLED", true),
			TickInterval:     tickInterval,
			AlertThreshold:   alertThreshold,
			MaxUploadBytes:   int64(maxUploadMB) * 1024 * 1024,
			RateLimitPerMin:  getEnvInt("CAPTURE_RATE_LIMIT_PER_MINUTE", 30),
			ListLimit:        getEnvInt("CAPTURE_LIST_LIMIT", 10),
		},
		Database: DatabaseConfig{
			Enabled:         getEnvBool("DB_ENABLED", false),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "leafwatch"),
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      redisTTL,
		},
		NATS: NATSConfig{
			Enabled: getEnvBool("NATS_ENABLED", false),
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Subject: getEnv("NATS_SUBJECT_PREFIX", "leafwatch"),
		},
		Archive: ArchiveConfig{
			Enabled:         getEnvBool("S3_ARCHIVE_ENABLED", false),
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "ru-central1"),
			Endpoint:        getEnv("S3_ENDPOINT", "https://storage.yandexcloud.net"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", true),
			KeyPrefix:       getEnv("S3_KEY_PREFIX", "leafwatch"),
		},
		Dynamo: DynamoConfig{
			Enabled:         getEnvBool("DYNAMO_ENABLED", false),
			Table:           getEnv("DYNAMO_TABLE_CAPTURES", "leafwatch_captures"),
			Region:          getEnv("DYNAMO_REGION", "ru-central1"),
			Endpoint:        getEnv("DYNAMO_ENDPOINT", ""),
			AccessKeyID:     getEnv("DYNAMO_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("DYNAMO_SECRET_ACCESS_KEY", ""),
		},
		CloudWatch: CloudWatchConfig{
			MetricsEnabled:       getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
			MetricsNamespace:     getEnv("CLOUDWATCH_METRICS_NAMESPACE", "Leafwatch/Appliance"),
			MetricsBufferSize:    getEnvInt("CLOUDWATCH_METRICS_BUFFER_SIZE", 50),
			MetricsFlushInterval: cwMetricsFlush,
			LogsEnabled:          getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
			LogGroupName:         getEnv("CLOUDWATCH_LOG_GROUP", "/leafwatch/appliance"),
			LogStreamName:        getEnv("CLOUDWATCH_LOG_STREAM", ""),
			LogsBufferSize:       getEnvInt("CLOUDWATCH_LOGS_BUFFER_SIZE", 100),
			LogsFlushInterval:    cwLogsFlush,
			Region:               getEnv("CLOUDWATCH_REGION", "us-east-1"),
			Endpoint:             getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:          getEnv("CLOUDWATCH_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("CLOUDWATCH_SECRET_ACCESS_KEY", ""),
		},
		Security: SecurityConfig{
			AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")),
			AuthEnabled:    getEnvBool("AUTH_ENABLED", false),
			AuthToken:      getEnv("AUTH_BEARER_TOKEN", ""),
		},
	}

	if cfg.Security.AuthEnabled && cfg.Security.AuthToken == "" {
		return nil, fmt.Errorf("AUTH_BEARER_TOKEN is required when AUTH_ENABLED=true")
	}
	if cfg.Archive.Enabled && cfg.Archive.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when S3_ARCHIVE_ENABLED=true")
	}

	return cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
