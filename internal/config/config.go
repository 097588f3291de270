package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Qdrant  QdrantConfig  `mapstructure:"qdrant"`
	YouTube YouTubeConfig `mapstructure:"youtube"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Poller  PollerConfig  `mapstructure:"poller"`
	Search  SearchConfig  `mapstructure:"search"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type QdrantConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Collection         string `mapstructure:"collection"`
	APIKey             string `mapstructure:"api_key"`
	UseTLS             bool   `mapstructure:"use_tls"`
	Dimensions         int    `mapstructure:"dimensions"`
	RecreateOnMismatch bool   `mapstructure:"recreate_on_mismatch"`
}

type YouTubeConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	FeedURL string `mapstructure:"feed_url"`
}

type OpenAIConfig struct {
	APIKey              string `mapstructure:"api_key"`
	BaseURL             string `mapstructure:"base_url"`
	EmbeddingModel      string `mapstructure:"embedding_model"`
	EmbeddingDimensions int    `mapstructure:"embedding_dimensions"`
	CompletionModel     string `mapstructure:"completion_model"`
}

type SyncConfig struct {
	Workers   int `mapstructure:"workers"`
	BatchSize int `mapstructure:"batch_size"`
}

type PollerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalSeconds int  `mapstructure:"interval_seconds"`
}

type SearchConfig struct {
	TopK    int `mapstructure:"top_k"`
	MaxTopK int `mapstructure:"max_top_k"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.collection", "yt_metadata")
	v.SetDefault("qdrant.dimensions", 1536)
	v.SetDefault("qdrant.recreate_on_mismatch", false)
	v.SetDefault("youtube.base_url", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("youtube.feed_url", "https://www.youtube.com/feeds/videos.xml")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("openai.embedding_dimensions", 1536)
	v.SetDefault("openai.completion_model", "gpt-4o-mini")
	v.SetDefault("sync.workers", 4)
	v.SetDefault("sync.batch_size", 25)
	v.SetDefault("poller.enabled", true)
	v.SetDefault("poller.interval_seconds", 600)
	v.SetDefault("search.top_k", 5)
	v.SetDefault("search.max_top_k", 50)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("qdrant.host", "QDRANT_HOST")
	v.BindEnv("qdrant.port", "QDRANT_PORT")
	v.BindEnv("qdrant.api_key", "QDRANT_API_KEY")
	v.BindEnv("qdrant.collection", "QDRANT_COLLECTION")
	v.BindEnv("youtube.api_key", "YOUTUBE_API_KEY")
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("openai.embedding_model", "OPENAI_EMBEDDING_MODEL")
	v.BindEnv("openai.completion_model", "OPENAI_COMPLETION_MODEL")
	v.BindEnv("poller.interval_seconds", "POLLER_INTERVAL_SECONDS")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
