package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Qdrant   QdrantConfig
	Gemini   GeminiConfig
	Storage  StorageConfig
	Indexer  IndexerConfig
	RabbitMQ RabbitMQConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type LogConfig struct {
	JSON  bool
	Debug bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
	MaxRetries int
}

type StorageConfig struct {
	UploadPath        string
	MaxFileSize       int64
	AllowedExtensions []string
}

type IndexerConfig struct {
	Concurrency int
	QueueSize   int
}

type RabbitMQConfig struct {
	URL   string
	Queue string
}

var defaults = map[string]any{
	"PORT":                "3000",
	"ENV":                 "development",
	"LOG_JSON":            false,
	"LOG_DEBUG":           false,
	"DB_HOST":             "localhost",
	"DB_PORT":             "5432",
	"DB_USER":             "postgres",
	"DB_PASSWORD":         "postgres",
	"DB_NAME":             "recruit_dashboard",
	"QDRANT_URL":          "",
	"QDRANT_API_KEY":      "",
	"QDRANT_COLLECTION":   "candidate_cvs",
	"GEMINI_API_KEY":      "",
	"GEMINI_MODEL":        "gemini-2.5-flash",
	"GEMINI_EMBED_MODEL":  "text-embedding-004",
	"GEMINI_MAX_RETRIES":  3,
	"UPLOAD_PATH":         "./uploads",
	"MAX_FILE_SIZE":       10485760,
	"ALLOWED_EXTENSIONS":  ".pdf,.doc,.docx,.txt",
	"INDEXER_CONCURRENCY": 2,
	"INDEXER_QUEUE_SIZE":  100,
	"RABBITMQ_URL":        "",
	"RABBITMQ_QUEUE":      "cv_events",
}

// Load reads an optional .env file and resolves every setting from the
// environment, falling back to defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment and default values.")
	}

	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return v
}

func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Log: LogConfig{
			JSON:  v.GetBool("LOG_JSON"),
			Debug: v.GetBool("LOG_DEBUG"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
		},
		Qdrant: QdrantConfig{
			URL:        v.GetString("QDRANT_URL"),
			APIKey:     v.GetString("QDRANT_API_KEY"),
			Collection: v.GetString("QDRANT_COLLECTION"),
		},
		Gemini: GeminiConfig{
			APIKey:     v.GetString("GEMINI_API_KEY"),
			Model:      v.GetString("GEMINI_MODEL"),
			EmbedModel: v.GetString("GEMINI_EMBED_MODEL"),
			MaxRetries: positiveOr(v.GetInt("GEMINI_MAX_RETRIES"), 1),
		},
		Storage: StorageConfig{
			UploadPath:        v.GetString("UPLOAD_PATH"),
			MaxFileSize:       v.GetInt64("MAX_FILE_SIZE"),
			AllowedExtensions: splitList(v.GetString("ALLOWED_EXTENSIONS")),
		},
		Indexer: IndexerConfig{
			Concurrency: positiveOr(v.GetInt("INDEXER_CONCURRENCY"), 1),
			QueueSize:   positiveOr(v.GetInt("INDEXER_QUEUE_SIZE"), 1),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   v.GetString("RABBITMQ_URL"),
			Queue: v.GetString("RABBITMQ_QUEUE"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
