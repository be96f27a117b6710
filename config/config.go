package config

import (
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Correios CorreiosConfig `yaml:"correios"`
	ShipBox  ShipBoxConfig  `yaml:"shipbox"`
}

// DatabaseConfig: пустой host: основной БД нет, работают только файловые хранилища.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                     string `yaml:"host"`
	Port                     int    `yaml:"port"`
	TrackingUpdatedTopicName string `yaml:"tracking_updated_topic_name"`
	SyncRequestedTopicName   string `yaml:"sync_requested_topic_name"`
	ConsumerGroup            string `yaml:"consumer_group"`
}

// RedisConfig: пустой host: кэш CEP в памяти и без лимитера Correios.
type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type CorreiosConfig struct {
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	Token          string `yaml:"token"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type ShipBoxConfig struct {
	Env            string `yaml:"env"`
	GRPCAddr       string `yaml:"grpc_addr"`
	HTTPAddr       string `yaml:"http_addr"`
	WorkerHTTPAddr string `yaml:"worker_http_addr"`
	DataDir        string `yaml:"data_dir"`

	ViaCEPBaseURL         string `yaml:"viacep_base_url"`
	PostalCacheTTLSeconds int    `yaml:"postal_cache_ttl_seconds"`
	StoreZipCode          string `yaml:"store_zip_code"`

	// SyncSchedule: cron-выражение пакетной синхронизации в воркере.
	SyncSchedule              string `yaml:"sync_schedule"`
	SyncDelayMillis           int    `yaml:"sync_delay_millis"`
	CarrierRateLimitPerMinute int    `yaml:"carrier_rate_limit_per_minute"`
}

const DefaultStoreZipCode = "01000000"

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// LoadDotEnv подхватывает .env, если он есть. Уже заданные переменные не перетираются.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "load .env")
	}
	return nil
}

// applyEnv: секреты и окружение приходят из переменных среды и важнее файла.
func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override(&c.Correios.Username, "CORREIOS_USERNAME")
	override(&c.Correios.Password, "CORREIOS_PASSWORD")
	override(&c.Correios.Token, "CORREIOS_TOKEN")
	override(&c.ShipBox.StoreZipCode, "STORE_ZIP_CODE")
	override(&c.ShipBox.Env, "APP_ENV")

	if c.ShipBox.StoreZipCode == "" {
		c.ShipBox.StoreZipCode = DefaultStoreZipCode
	}
}

func (c *Config) PrimaryEnabled() bool { return c.Database.Host != "" }

func (c *Config) PostgresConnString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.Username, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.DBName, sslMode)
}

func (c *Config) RedisEnabled() bool { return c.Redis.Host != "" }

func (c *Config) RedisAddr() string { return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port) }

func (c *Config) KafkaEnabled() bool { return c.Kafka.Host != "" }

func (c *Config) KafkaBrokers() []string {
	return []string{fmt.Sprintf("%s:%d", c.Kafka.Host, c.Kafka.Port)}
}

// CorreiosEnabled: без логина и пароля трекинг работает на демо-перевозчике.
func (c *Config) CorreiosEnabled() bool {
	return c.Correios.Username != "" && c.Correios.Password != ""
}

func (c *Config) CorreiosTimeout() time.Duration {
	return time.Duration(c.Correios.TimeoutSeconds) * time.Second
}

func (c *Config) PostalCacheTTL() time.Duration {
	return time.Duration(c.ShipBox.PostalCacheTTLSeconds) * time.Second
}
