package conf

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Rerank    RerankConfig    `mapstructure:"rerank"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StorageConfig 上传目录与向量库目录。显式配置而非进程级常量，
// 各组件在构造时注入。
type StorageConfig struct {
	UploadDir   string `mapstructure:"upload_dir"`
	VectorDBDir string `mapstructure:"vector_db_dir"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type RerankConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type RedisConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KnowledgeConfig struct {
	ChunkSize        int           `mapstructure:"chunk_size"`
	ChunkOverlap     int           `mapstructure:"chunk_overlap"`
	TopK             int           `mapstructure:"top_k"`
	MaxContextTokens int           `mapstructure:"max_context_tokens"`
	FileTimeout      time.Duration `mapstructure:"file_timeout"`
	DefaultChatModel string        `mapstructure:"default_chat_model"`
	DefaultEmbedding string        `mapstructure:"default_embedding"`
}

type LogConfig struct {
	Level            string        `mapstructure:"level"`
	Format           string        `mapstructure:"format"`
	Output           string        `mapstructure:"output"`
	File             FileLogConfig `mapstructure:"file"`
	EnableCaller     bool          `mapstructure:"enablecaller"`
	EnableStacktrace bool          `mapstructure:"enablestacktrace"`
}

type FileLogConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"maxsize"`
	MaxAge     int    `mapstructure:"maxage"`
	MaxBackups int    `mapstructure:"maxbackups"`
	Compress   bool   `mapstructure:"compress"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = "uploads"
	}
	if c.Storage.VectorDBDir == "" {
		c.Storage.VectorDBDir = "vector_db"
	}
	if c.Knowledge.ChunkSize == 0 {
		c.Knowledge.ChunkSize = 500
	}
	if c.Knowledge.ChunkOverlap == 0 {
		c.Knowledge.ChunkOverlap = 50
	}
	if c.Knowledge.TopK == 0 {
		c.Knowledge.TopK = 3
	}
	if c.Knowledge.MaxContextTokens == 0 {
		c.Knowledge.MaxContextTokens = 3000
	}
	if c.Knowledge.FileTimeout == 0 {
		c.Knowledge.FileTimeout = 2 * time.Minute
	}
	if c.Knowledge.DefaultChatModel == "" {
		c.Knowledge.DefaultChatModel = "gpt-3.5-turbo"
	}
	if c.Knowledge.DefaultEmbedding == "" {
		c.Knowledge.DefaultEmbedding = "text-embedding-3-small"
	}
}
