package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultSecret = "your-secret-key-change-in-production"

// Config 应用配置
type Config struct {
	Env       string
	Port      string
	AppSecret string
	TokenTTL  time.Duration
	SiteName  string

	LogLevel  string
	LogFormat string

	// 目录
	CatalogSource string // csv | postgres
	CatalogPath   string
	DatabaseURL   string
	CatalogTable  string

	// 外部分类器
	ClassifierProvider string // gemini | ollama | none
	GeminiAPIKey       string
	GeminiModel        string
	OllamaHost         string
	OllamaModel        string
	ClassifierTimeout  time.Duration
	ClassifierRPS      float64
	ClassifierCache    int
	ClassifierCacheTTL time.Duration

	// 对话与推荐
	SessionTTL    time.Duration // 0 表示会话不过期
	PageSize      int
	SampleCap     int
	SampleMode    string // weighted | top
	ExpandCluster bool
	RandomSeed    uint64
}

// Load 加载配置
func Load() *Config {
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "moviechat")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	appSecret := getEnv("APP_SECRET", defaultSecret)
	env := getEnv("APP_ENV", "development")
	if env == "production" && appSecret == defaultSecret {
		log.Warn().Msg("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	return &Config{
		Env:       env,
		Port:      getEnv("PORT", "10000"),
		AppSecret: appSecret,
		TokenTTL:  time.Duration(getEnvInt("SESSION_TOKEN_TTL_HOURS", 72)) * time.Hour,
		SiteName:  getEnv("SITE_NAME", "Movie Chat"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		CatalogSource: strings.ToLower(getEnv("CATALOG_SOURCE", "csv")),
		CatalogPath:   getEnv("CATALOG_PATH", "movies.csv"),
		DatabaseURL:   dbURL,
		CatalogTable:  getEnv("CATALOG_TABLE", "movies"),

		ClassifierProvider: strings.ToLower(getEnv("CLASSIFIER_PROVIDER", "none")),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OllamaHost:         getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:        getEnv("OLLAMA_MODEL", "llama3.2"),
		ClassifierTimeout:  time.Duration(getEnvInt("CLASSIFIER_TIMEOUT_MS", 4000)) * time.Millisecond,
		ClassifierRPS:      getEnvFloat("CLASSIFIER_RPS", 5),
		ClassifierCache:    getEnvInt("CLASSIFIER_CACHE_SIZE", 1000),
		ClassifierCacheTTL: time.Duration(getEnvInt("CLASSIFIER_CACHE_TTL_MINUTES", 30)) * time.Minute,

		SessionTTL:    time.Duration(getEnvInt("SESSION_TTL_MINUTES", 0)) * time.Minute,
		PageSize:      getEnvInt("PAGE_SIZE", 5),
		SampleCap:     getEnvInt("SAMPLE_CAP", 40),
		SampleMode:    strings.ToLower(getEnv("SAMPLE_MODE", "weighted")),
		ExpandCluster: getEnvBool("EXPAND_CLUSTER", false),
		RandomSeed:    uint64(getEnvInt("RANDOM_SEED", 0)),
	}
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.SampleCap <= 0 {
		return fmt.Errorf("SAMPLE_CAP must be positive, got %d", c.SampleCap)
	}
	if c.ClassifierTimeout <= 0 {
		return fmt.Errorf("CLASSIFIER_TIMEOUT_MS must be positive")
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must not be negative")
	}
	switch c.CatalogSource {
	case "csv", "postgres":
	default:
		return fmt.Errorf("unknown CATALOG_SOURCE %q", c.CatalogSource)
	}
	switch c.ClassifierProvider {
	case "none", "ollama":
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("CLASSIFIER_PROVIDER=gemini requires GEMINI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown CLASSIFIER_PROVIDER %q", c.ClassifierProvider)
	}
	switch c.SampleMode {
	case "weighted", "top":
	default:
		return fmt.Errorf("unknown SAMPLE_MODE %q", c.SampleMode)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}
