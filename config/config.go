package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	DB       DBConfig      `yaml:"db"`
	Kafka    KafkaConfig   `yaml:"kafka"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Services Services      `yaml:"services"`
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"` //nolint:gosec // config struct, not hardcoded cred
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	ActivityTopic     string   `yaml:"activity_topic"`
	NotificationTopic string   `yaml:"notification_topic"`
	GroupID           string   `yaml:"group_id"`
	WorkerPoolSize    int      `yaml:"worker_pool_size"`
}

type MetricsConfig struct {
	Address string `yaml:"address"`
}

type Services struct {
	Catalog ServiceConfig `yaml:"catalog"`
	Profile ServiceConfig `yaml:"profile"`
}

type ServiceConfig struct {
	Address string        `yaml:"address"`
	Timeout time.Duration `yaml:"timeout"`
}

func Load() (*Config, error) {
	configPath := getConfigPath()
	data, err := os.ReadFile(configPath) //nolint:gosec // config path from env/flag
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	setDefaults(&cfg)
	overrideFromEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	possiblePaths := []string{
		"config/config.yaml",
		"/etc/coursework-service/config.yaml",
		"./config.yaml",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "config.yaml"
}

func setDefaults(cfg *Config) {
	if cfg.Kafka.ActivityTopic == "" {
		cfg.Kafka.ActivityTopic = "personal-assignment-activity"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "coursework-service-group"
	}
	if cfg.Kafka.WorkerPoolSize == 0 {
		cfg.Kafka.WorkerPoolSize = 5
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
	if cfg.Services.Catalog.Timeout == 0 {
		cfg.Services.Catalog.Timeout = 10 * time.Second
	}
	if cfg.Services.Profile.Timeout == 0 {
		cfg.Services.Profile.Timeout = 10 * time.Second
	}
}

func overrideFromEnv(cfg *Config) {
	if val := os.Getenv("DB_HOST"); val != "" {
		cfg.DB.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.DB.Port = port
		}
	}
	if val := os.Getenv("DB_USER"); val != "" {
		cfg.DB.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		cfg.DB.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		cfg.DB.DBName = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		cfg.DB.SSLMode = val
	}

	if val := os.Getenv("KAFKA_BROKERS"); val != "" {
		cfg.Kafka.Brokers = strings.Split(val, ",")
	}
	if val := os.Getenv("KAFKA_ACTIVITY_TOPIC"); val != "" {
		cfg.Kafka.ActivityTopic = val
	}
	if val := os.Getenv("KAFKA_NOTIFICATION_TOPIC"); val != "" {
		cfg.Kafka.NotificationTopic = val
	}
	if val := os.Getenv("KAFKA_GROUP_ID"); val != "" {
		cfg.Kafka.GroupID = val
	}
	if val := os.Getenv("KAFKA_WORKER_POOL_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			cfg.Kafka.WorkerPoolSize = size
		}
	}

	if val := os.Getenv("METRICS_ADDRESS"); val != "" {
		cfg.Metrics.Address = val
	}

	if val := os.Getenv("CATALOG_SERVICE_ADDRESS"); val != "" {
		cfg.Services.Catalog.Address = val
	}
	if val := os.Getenv("CATALOG_SERVICE_TIMEOUT"); val != "" {
		if timeout, err := strconv.Atoi(val); err == nil {
			cfg.Services.Catalog.Timeout = time.Duration(timeout) * time.Second
		}
	}
	if val := os.Getenv("PROFILE_SERVICE_ADDRESS"); val != "" {
		cfg.Services.Profile.Address = val
	}
	if val := os.Getenv("PROFILE_SERVICE_TIMEOUT"); val != "" {
		if timeout, err := strconv.Atoi(val); err == nil {
			cfg.Services.Profile.Timeout = time.Duration(timeout) * time.Second
		}
	}
}

func validateConfig(cfg *Config) error {
	if len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("at least one Kafka broker must be specified")
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.DBName == "" {
		return fmt.Errorf("database configuration is incomplete")
	}

	if cfg.Services.Catalog.Address == "" {
		return fmt.Errorf("catalog service address must be specified")
	}

	if cfg.Services.Profile.Address == "" {
		return fmt.Errorf("profile service address must be specified")
	}

	return nil
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.DBName,
		c.DB.SSLMode,
	)
}
