package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Billing  ServiceConfig
	Registry ServiceConfig
	Cart     ServiceConfig
	Webhook  WebhookConfig
	Admin    AdminConfig
	Features FeatureFlags
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
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

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type KafkaConfig struct {
	Brokers        []string
	LifecycleTopic string
	BillingTopic   string
	ConsumerGroup  string
}

type ServiceConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// WebhookConfig configures the deploy webhook receiver. Requests are
// rejected outright when Secret is empty.
type WebhookConfig struct {
	Secret       string
	DeployBranch string
}

// AdminConfig holds credentials for the merchant admin API. Admin
// routes are disabled when Token is empty.
type AdminConfig struct {
	Token string
}

type FeatureFlags struct {
	EnableCatalogCache    bool
	EnableLifecycleEvents bool
	EnableBillingConsumer bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnvString("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnvString("DB_USER", "cartboost"),
			Password:     getEnvString("DB_PASSWORD", "cartboost"),
			Name:         getEnvString("DB_NAME", "cartboost_blocks"),
			SSLMode:      getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("REDIS_TTL", 300)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:        getEnvStringSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			LifecycleTopic: getEnvString("KAFKA_LIFECYCLE_TOPIC", "blocks.lifecycle"),
			BillingTopic:   getEnvString("KAFKA_BILLING_TOPIC", "platform.billing"),
			ConsumerGroup:  getEnvString("KAFKA_CONSUMER_GROUP", "blocks-service"),
		},
		Billing: ServiceConfig{
			BaseURL: getEnvString("BILLING_API_URL", "https://billing.platform.example.com"),
			APIKey:  getEnvString("BILLING_API_KEY", ""),
			Timeout: time.Duration(getEnvInt("BILLING_API_TIMEOUT", 30)) * time.Second,
		},
		Registry: ServiceConfig{
			BaseURL: getEnvString("REGISTRY_URL", "http://localhost:8085"),
			APIKey:  getEnvString("REGISTRY_API_KEY", ""),
			Timeout: time.Duration(getEnvInt("REGISTRY_TIMEOUT", 30)) * time.Second,
		},
		Cart: ServiceConfig{
			BaseURL: getEnvString("CART_API_URL", "https://storefront.platform.example.com"),
			APIKey:  getEnvString("CART_API_KEY", ""),
			Timeout: time.Duration(getEnvInt("CART_API_TIMEOUT", 10)) * time.Second,
		},
		Webhook: WebhookConfig{
			Secret:       getEnvString("DEPLOY_WEBHOOK_SECRET", ""),
			DeployBranch: getEnvString("DEPLOY_BRANCH", "main"),
		},
		Admin: AdminConfig{
			Token: getEnvString("ADMIN_API_TOKEN", ""),
		},
		Features: FeatureFlags{
			EnableCatalogCache:    getEnvBool("ENABLE_CATALOG_CACHE", true),
			EnableLifecycleEvents: getEnvBool("ENABLE_LIFECYCLE_EVENTS", true),
			EnableBillingConsumer: getEnvBool("ENABLE_BILLING_CONSUMER", true),
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
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
