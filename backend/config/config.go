package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Minio     MinioConfig     `yaml:"minio"`
	Mineru    MineruConfig    `yaml:"mineru"`
	Auth      AuthConfig      `yaml:"auth"`
	Users     []User          `yaml:"users"`
	NLU       NLUConfig       `yaml:"nlu"`
	Watsonx   WatsonxConfig   `yaml:"watsonx"`
	Inference InferenceConfig `yaml:"inference"`
	Vertex    VertexConfig    `yaml:"vertex"`
	Redis     RedisConfig     `yaml:"redis"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	MaxContracts int `yaml:"max_contracts"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

type MineruConfig struct {
	APIURL       string        `yaml:"api_url"`
	APIToken     string        `yaml:"api_token"`
	ModelVersion string        `yaml:"model_version"`
	CallbackURL  string        `yaml:"callback_url"`
	Seed         string        `yaml:"seed"`
	UID          string        `yaml:"uid"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxPolls     int           `yaml:"max_polls"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Tenant   string `yaml:"tenant"`
}

// NLUConfig configures the text-analysis backend
type NLUConfig struct {
	APIKey  string `yaml:"api_key"`
	URL     string `yaml:"url"`
	Version string `yaml:"version"`
	IAMURL  string `yaml:"iam_url"`
}

// WatsonxConfig configures the hosted foundation-model generation backend
type WatsonxConfig struct {
	APIKey         string  `yaml:"api_key"`
	URL            string  `yaml:"url"`
	ProjectID      string  `yaml:"project_id"`
	ModelID        string  `yaml:"model_id"`
	Version        string  `yaml:"version"`
	IAMURL         string  `yaml:"iam_url"`
	DecodingMethod string  `yaml:"decoding_method"`
	MaxNewTokens   int     `yaml:"max_new_tokens"`
	MinNewTokens   int     `yaml:"min_new_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TopK           int     `yaml:"top_k"`
	TopP           float64 `yaml:"top_p"`
	ChunkLimit     int     `yaml:"chunk_limit"`
}

// InferenceConfig configures the hosted-inference backend
type InferenceConfig struct {
	APIToken     string        `yaml:"api_token"`
	URL          string        `yaml:"url"`
	Model        string        `yaml:"model"`
	MaxNewTokens int           `yaml:"max_new_tokens"`
	Temperature  float64       `yaml:"temperature"`
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	ChunkLimit   int           `yaml:"chunk_limit"`
}

// VertexConfig configures the Vertex AI Gemini backend
type VertexConfig struct {
	ProjectID       string  `yaml:"project_id"`
	Region          string  `yaml:"region"`
	Model           string  `yaml:"model"`
	CredentialsFile string  `yaml:"credentials_file"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
	ChunkLimit      int     `yaml:"chunk_limit"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	Prefix   string        `yaml:"prefix"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// AnalysisConfig holds pipeline tunables
type AnalysisConfig struct {
	EntityConfidence float64       `yaml:"entity_confidence"`
	KeywordRelevance float64       `yaml:"keyword_relevance"`
	SimplifyWith     string        `yaml:"simplify_with"`
	ExplainWith      string        `yaml:"explain_with"`
	BackendTimeout   time.Duration `yaml:"backend_timeout"`
	RunTimeout       time.Duration `yaml:"run_timeout"`
	MinTextLength    int           `yaml:"min_text_length"`
	MaxFileSizeMB    int           `yaml:"max_file_size_mb"`
}

var GlobalConfig *Config

// Load reads the YAML file at path. ${VAR} references are expanded from the
// environment before parsing so credentials can stay out of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	GlobalConfig = &cfg
	return &cfg, nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}

// MaxFileSize returns the upload limit in bytes
func (a *AnalysisConfig) MaxFileSize() int64 {
	return int64(a.MaxFileSizeMB) * 1024 * 1024
}
