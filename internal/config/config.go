package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server              ServerConfig
	Database            DatabaseConfig
	Redis               RedisConfig
	Kafka               KafkaConfig
	Auth                AuthConfig
	NotificationService ServiceConfig
	Logger              LoggerConfig
	Catalog             CatalogConfig
	Features            FeatureFlags
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Mode            string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

// RedisConfig addresses the guest session store.
type RedisConfig struct {
	Host       string
	Port       int
	Password   string
	DB         int
	SessionTTL time.Duration
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + strconv.Itoa(r.Port)
}

type KafkaConfig struct {
	Brokers       []string
	EventsTopic   string
	ReviewsTopic  string
	ConsumerGroup string
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type ServiceConfig struct {
	BaseURL string
	Timeout time.Duration
	APIKey  string
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// CatalogConfig controls how product media is presented.
type CatalogConfig struct {
	MediaBaseURL     string
	PlaceholderImage string
}

type FeatureFlags struct {
	EnableEvents         bool
	EnableNotifications  bool
	EnableReviewConsumer bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:            getEnvInt("SERVER_PORT", 8085),
			ReadTimeout:     time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("SERVER_SHUTDOWN_TIMEOUT", 30)) * time.Second,
			Mode:            getEnvString("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			Host:         getEnvString("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnvString("DB_USER", "acme"),
			Password:     getEnvString("DB_PASSWORD", "acme"),
			Name:         getEnvString("DB_NAME", "acme_storefront"),
			SSLMode:      getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:       getEnvString("REDIS_HOST", "localhost"),
			Port:       getEnvInt("REDIS_PORT", 6379),
			Password:   getEnvString("REDIS_PASSWORD", ""),
			DB:         getEnvInt("REDIS_DB", 0),
			SessionTTL: getEnvDuration("GUEST_SESSION_TTL", 5*24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			EventsTopic:   getEnvString("KAFKA_EVENTS_TOPIC", "storefront.events"),
			ReviewsTopic:  getEnvString("KAFKA_REVIEWS_TOPIC", "storefront.payment-reviews"),
			ConsumerGroup: getEnvString("KAFKA_CONSUMER_GROUP", "storefront-service"),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnvString("JWT_SECRET", "change-me"),
			TokenTTL:   getEnvDuration("JWT_TTL", 15*24*time.Hour),
			BcryptCost: getEnvInt("BCRYPT_COST", 10),
		},
		NotificationService: ServiceConfig{
			BaseURL: getEnvString("NOTIFICATION_SERVICE_URL", "http://localhost:8084"),
			Timeout: time.Duration(getEnvInt("NOTIFICATION_SERVICE_TIMEOUT", 10)) * time.Second,
			APIKey:  getEnvString("NOTIFICATION_SERVICE_API_KEY", ""),
		},
		Logger: LoggerConfig{
			Level:    getEnvString("LOG_LEVEL", "info"),
			Encoding: getEnvString("LOG_ENCODING", "json"),
		},
		Catalog: CatalogConfig{
			MediaBaseURL:     getEnvString("MEDIA_BASE_URL", "/media"),
			PlaceholderImage: getEnvString("PLACEHOLDER_IMAGE", "/static/img/placeholder.png"),
		},
		Features: FeatureFlags{
			EnableEvents:         getEnvBool("ENABLE_EVENTS", false),
			EnableNotifications:  getEnvBool("ENABLE_NOTIFICATIONS", false),
			EnableReviewConsumer: getEnvBool("ENABLE_REVIEW_CONSUMER", false),
		},
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
