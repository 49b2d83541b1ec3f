package config

import (
	"strings"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/spf13/viper"
)

const (
	NewsProviderNewsAPI = "newsapi"
	NewsProviderRSS     = "rss"

	LLMProviderOpenAI    = "openai"
	LLMProviderAnthropic = "anthropic"
)

type Config struct {
	GeneralVersion       string `mapstructure:"GENERAL_VERSION"`
	Environment          string `mapstructure:"ENVIRONMENT"`
	ServerPort           int    `mapstructure:"SERVER_PORT"`
	DatabaseHost         string `mapstructure:"DB_HOST"`
	DatabasePort         int    `mapstructure:"DB_PORT"`
	DatabaseName         string `mapstructure:"DB_NAME"`
	DatabaseUser         string `mapstructure:"DB_USER"`
	DatabasePassword     string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DB_CACHE_PORT"`
	DatabaseCacheReset   int    `mapstructure:"DB_CACHE_RESET"`
	CorsAllowOrigins     string `mapstructure:"CORS_ALLOW_ORIGINS"`
	JWTSecret            string `mapstructure:"JWT_SECRET"`

	SchedulerEnabled              bool `mapstructure:"SCHEDULER_ENABLED"`
	DigestCheckIntervalMinutes    int  `mapstructure:"DIGEST_CHECK_INTERVAL_MINUTES"`
	DigestWorkerConcurrency       int  `mapstructure:"DIGEST_WORKER_CONCURRENCY"`
	SchedulerShutdownGraceSeconds int  `mapstructure:"SCHEDULER_SHUTDOWN_GRACE_SECONDS"`
	DigestStalePendingMinutes     int  `mapstructure:"DIGEST_STALE_PENDING_MINUTES"`
	DigestWaitTimeoutSeconds      int  `mapstructure:"DIGEST_WAIT_TIMEOUT_SECONDS"`

	NewsProvider        string `mapstructure:"NEWS_PROVIDER"`
	NewsAPIKey          string `mapstructure:"NEWSAPI_KEY"`
	NewsAPIBaseURL      string `mapstructure:"NEWSAPI_BASE_URL"`
	NewsMaxPerCategory  int    `mapstructure:"NEWS_MAX_PER_CATEGORY"`
	NewsCacheTTLMinutes int    `mapstructure:"NEWS_CACHE_TTL_MINUTES"`
	RSSFeeds            string `mapstructure:"RSS_FEEDS"`

	LLMProvider       string `mapstructure:"LLM_PROVIDER"`
	OpenAIAPIKey      string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel       string `mapstructure:"OPENAI_MODEL"`
	AnthropicAPIKey   string `mapstructure:"ANTHROPIC_API_KEY"`
	AnthropicModel    string `mapstructure:"ANTHROPIC_MODEL"`
	LLMMaxTokens      int    `mapstructure:"LLM_MAX_TOKENS"`
	LLMTimeoutSeconds int    `mapstructure:"LLM_TIMEOUT_SECONDS"`
	LLMMaxPromptChars int    `mapstructure:"LLM_MAX_PROMPT_CHARS"`
}

var ConfigInstance Config

var defaults = map[string]any{
	"ENVIRONMENT":                      "production",
	"DB_PORT":                          5432,
	"DB_CACHE_RESET":                   -1,
	"SCHEDULER_ENABLED":                true,
	"DIGEST_CHECK_INTERVAL_MINUTES":    15,
	"DIGEST_WORKER_CONCURRENCY":        4,
	"SCHEDULER_SHUTDOWN_GRACE_SECONDS": 30,
	"DIGEST_STALE_PENDING_MINUTES":     10,
	"DIGEST_WAIT_TIMEOUT_SECONDS":      0,
	"NEWS_PROVIDER":                    NewsProviderNewsAPI,
	"NEWSAPI_BASE_URL":                 "https://newsapi.org",
	"NEWS_MAX_PER_CATEGORY":            10,
	"NEWS_CACHE_TTL_MINUTES":           60,
	"LLM_PROVIDER":                     LLMProviderOpenAI,
	"OPENAI_MODEL":                     "gpt-4o-mini",
	"ANTHROPIC_MODEL":                  "claude-haiku-4-5",
	"LLM_MAX_TOKENS":                   2000,
	"LLM_TIMEOUT_SECONDS":              60,
	"LLM_MAX_PROMPT_CHARS":             12000,
}

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	viper.AutomaticEnv()

	envVars := []string{
		"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_CACHE_ADDRESS", "DB_CACHE_PORT", "DB_CACHE_RESET",
		"CORS_ALLOW_ORIGINS", "JWT_SECRET",
		"SCHEDULER_ENABLED", "DIGEST_CHECK_INTERVAL_MINUTES", "DIGEST_WORKER_CONCURRENCY",
		"SCHEDULER_SHUTDOWN_GRACE_SECONDS", "DIGEST_STALE_PENDING_MINUTES", "DIGEST_WAIT_TIMEOUT_SECONDS",
		"NEWS_PROVIDER", "NEWSAPI_KEY", "NEWSAPI_BASE_URL", "NEWS_MAX_PER_CATEGORY", "NEWS_CACHE_TTL_MINUTES", "RSS_FEEDS",
		"LLM_PROVIDER", "OPENAI_API_KEY", "OPENAI_MODEL", "ANTHROPIC_API_KEY", "ANTHROPIC_MODEL",
		"LLM_MAX_TOKENS", "LLM_TIMEOUT_SECONDS", "LLM_MAX_PROMPT_CHARS",
	}

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	envVarsSet := viper.IsSet("SERVER_PORT") && viper.IsSet("DB_HOST")

	if envVarsSet {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}

	log.Info(
		"Successfully initialized config",
		"environment", config.Environment,
		"schedulerEnabled", config.SchedulerEnabled,
		"newsProvider", config.NewsProvider,
		"llmProvider", config.LLMProvider,
	)
	return ConfigInstance, nil
}

func GetConfig() Config {
	return ConfigInstance
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error(
			"Fatal error: invalid server port",
			"port", config.ServerPort,
		)
	}

	if config.DigestCheckIntervalMinutes <= 0 {
		return log.Error(
			"Fatal error: digest check interval must be positive",
			"minutes", config.DigestCheckIntervalMinutes,
		)
	}

	if config.DigestWorkerConcurrency <= 0 {
		return log.Error(
			"Fatal error: digest worker concurrency must be positive",
			"concurrency", config.DigestWorkerConcurrency,
		)
	}

	switch config.NewsProvider {
	case NewsProviderNewsAPI, NewsProviderRSS:
	default:
		return log.Error("Fatal error: unknown news provider", "provider", config.NewsProvider)
	}

	switch config.LLMProvider {
	case LLMProviderOpenAI, LLMProviderAnthropic:
	default:
		return log.Error("Fatal error: unknown llm provider", "provider", config.LLMProvider)
	}

	ConfigInstance = config
	return nil
}

func (c Config) DigestCheckInterval() time.Duration {
	return time.Duration(c.DigestCheckIntervalMinutes) * time.Minute
}

func (c Config) SchedulerShutdownGrace() time.Duration {
	return time.Duration(c.SchedulerShutdownGraceSeconds) * time.Second
}

func (c Config) DigestStalePending() time.Duration {
	return time.Duration(c.DigestStalePendingMinutes) * time.Minute
}

func (c Config) DigestWaitTimeout() time.Duration {
	return time.Duration(c.DigestWaitTimeoutSeconds) * time.Second
}

func (c Config) NewsCacheTTL() time.Duration {
	return time.Duration(c.NewsCacheTTLMinutes) * time.Minute
}

func (c Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// RSSFeedMap parses RSS_FEEDS, formatted as "category=url,category=url".
func (c Config) RSSFeedMap() map[string]string {
	feeds := make(map[string]string)
	for _, entry := range strings.Split(c.RSSFeeds, ",") {
		category, url, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok || category == "" || url == "" {
			continue
		}
		feeds[strings.TrimSpace(category)] = strings.TrimSpace(url)
	}
	return feeds
}
