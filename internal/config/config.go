package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Translate TranslateConfig `yaml:"translate"`
	LogLevel  string          `yaml:"log_level"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type IngestConfig struct {
	FeedTimeout     time.Duration `yaml:"feed_timeout"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	SummaryLength   int           `yaml:"summary_length"`
	RetentionCap    int           `yaml:"retention_cap"`
	Workers         int           `yaml:"workers"`
	CorpusPath      string        `yaml:"corpus_path"`
}

type TranslateConfig struct {
	Enabled        bool   `yaml:"enabled"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TargetLanguage string `yaml:"target_language"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "feedsync"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "articles"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "cms_articles"
	}
	if c.Ingest.FeedTimeout == 0 {
		c.Ingest.FeedTimeout = 10 * time.Second
	}
	if c.Ingest.CacheTTL == 0 {
		c.Ingest.CacheTTL = 30 * time.Minute
	}
	if c.Ingest.RefreshInterval == 0 {
		c.Ingest.RefreshInterval = 30 * time.Minute
	}
	if c.Ingest.SummaryLength == 0 {
		c.Ingest.SummaryLength = 300
	}
	if c.Ingest.RetentionCap == 0 {
		c.Ingest.RetentionCap = 1000
	}
	if c.Ingest.Workers == 0 {
		c.Ingest.Workers = 4
	}
	if c.Ingest.CorpusPath == "" {
		c.Ingest.CorpusPath = "data/articles.json"
	}
	if c.Translate.Model == "" {
		c.Translate.Model = "gpt-4o-mini"
	}
	if c.Translate.TargetLanguage == "" {
		c.Translate.TargetLanguage = "English"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
