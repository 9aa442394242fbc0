package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"food-co2-estimator/internal/pkg/common"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Queue       QueueConfig      `mapstructure:"queue"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	Estimator   EstimatorConfig  `mapstructure:"estimator"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Search      SearchConfig     `mapstructure:"search"`
	Translate   TranslateConfig  `mapstructure:"translate"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error fatal"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port" validate:"gt=0,lte=65535"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	BaseURL     string        `mapstructure:"base_url" validate:"required,http_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model" validate:"required"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"gt=0"`
	Temperature float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Backend   string        `mapstructure:"backend" validate:"oneof=memory redis"`
	MaxSize   int           `mapstructure:"max_size"`
	TTL       time.Duration `mapstructure:"ttl"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
}

// QueueConfig 工作池設定
type QueueConfig struct {
	Workers int `mapstructure:"workers" validate:"gt=0"`
	MaxSize int `mapstructure:"max_size" validate:"gt=0"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// EstimatorConfig 估算流程設定
type EstimatorConfig struct {
	NegligibleThreshold float64       `mapstructure:"negligible_threshold" validate:"gte=0"`
	TopK                int           `mapstructure:"top_k" validate:"gt=0,lte=50"`
	TranslationAttempts int           `mapstructure:"translation_attempts" validate:"gt=0"`
	ParseRetries        int           `mapstructure:"parse_retries" validate:"gte=0"`
	StageTimeout        time.Duration `mapstructure:"stage_timeout" validate:"gt=0"`
	SearchTimeout       time.Duration `mapstructure:"search_timeout" validate:"gt=0"`
	TranslateTimeout    time.Duration `mapstructure:"translate_timeout" validate:"gt=0"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout" validate:"gt=0"`
	MaxPageBytes        int64         `mapstructure:"max_page_bytes" validate:"gt=0"`
}

// DatabaseConfig 排放係數資料庫
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SearchConfig 網路搜尋設定
type SearchConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url" validate:"required,http_url"`
	APIKey  string `mapstructure:"api_key"`
	Results int    `mapstructure:"results" validate:"gt=0"`
	Country string `mapstructure:"country"`
}

// TranslateConfig 翻譯供應商設定
type TranslateConfig struct {
	Providers         []string `mapstructure:"providers" validate:"min=1,dive,oneof=mymemory libretranslate llm"`
	MyMemoryURL       string   `mapstructure:"mymemory_url"`
	MyMemoryEmail     string   `mapstructure:"mymemory_email"`
	LibreTranslateURL string   `mapstructure:"libretranslate_url"`
	LibreTranslateKey string   `mapstructure:"libretranslate_key"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件（不存在時忽略）
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	_ = v.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	_ = v.BindEnv("openrouter.model", "OPENROUTER_MODEL")
	_ = v.BindEnv("openrouter.max_tokens", "MODEL_MAX_TOKENS")
	_ = v.BindEnv("search.api_key", "SERPER_API_KEY")
	_ = v.BindEnv("cache.enabled", "CACHE_ENABLED")
	_ = v.BindEnv("cache.backend", "CACHE_BACKEND")
	_ = v.BindEnv("cache.redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("database.path", "EMISSIONS_DB_PATH")
	_ = v.BindEnv("estimator.negligible_threshold", "NEGLIGIBLE_THRESHOLD")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("dedup_window", "DEDUP_WINDOW")
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration", "openrouter_api_key:", maskAPIKey(v.GetString("openrouter.api_key")), "openrouter_model:", v.GetString("openrouter.model"))

	return fromViper(v)
}

// fromViper 解析並驗證
func fromViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 以逗號分隔的環境變數
	if len(config.Translate.Providers) == 1 && strings.Contains(config.Translate.Providers[0], ",") {
		config.Translate.Providers = splitList(config.Translate.Providers[0])
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Defaults 回傳只含預設值的設定（CLI 與測試用）
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := fromViper(v)
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return cfg
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "food-co2-estimator")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "170s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// OpenRouter 設定
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "openai/gpt-4o-mini")
	v.SetDefault("openrouter.max_tokens", 4000)
	v.SetDefault("openrouter.temperature", 0.0)
	v.SetDefault("openrouter.timeout", "60s")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)

	// 工作池設定
	v.SetDefault("queue.workers", 5)
	v.SetDefault("queue.max_size", 100)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 30)
	v.SetDefault("rate_limit.window", "1m")

	// 估算流程
	v.SetDefault("estimator.negligible_threshold", 0.01)
	v.SetDefault("estimator.top_k", 5)
	v.SetDefault("estimator.translation_attempts", 2)
	v.SetDefault("estimator.parse_retries", 1)
	v.SetDefault("estimator.stage_timeout", "90s")
	v.SetDefault("estimator.search_timeout", "30s")
	v.SetDefault("estimator.translate_timeout", "20s")
	v.SetDefault("estimator.fetch_timeout", "20s")
	v.SetDefault("estimator.max_page_bytes", 10<<20)

	v.SetDefault("database.path", "data/emissions.db")

	// 搜尋
	v.SetDefault("search.enabled", true)
	v.SetDefault("search.base_url", "https://google.serper.dev")
	v.SetDefault("search.results", 10)
	v.SetDefault("search.country", "dk")

	// 翻譯
	v.SetDefault("translate.providers", []string{"mymemory", "libretranslate", "llm"})
	v.SetDefault("translate.mymemory_url", "https://api.mymemory.translated.net")
	v.SetDefault("translate.libretranslate_url", "https://libretranslate.com")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if err := common.ValidateStruct(config); err != nil {
		return fmt.Errorf("%s", common.ValidationSummary(err))
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.Backend == "redis" && config.Cache.RedisAddr == "" {
			return fmt.Errorf("redis cache requires redis_addr")
		}
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}
