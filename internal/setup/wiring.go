package setup

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/opentoolhub/search-agent/internal/analytics"
	"github.com/opentoolhub/search-agent/internal/cache"
	"github.com/opentoolhub/search-agent/internal/config"
	"github.com/opentoolhub/search-agent/internal/database"
	"github.com/opentoolhub/search-agent/internal/llm"
	"github.com/opentoolhub/search-agent/internal/llm/deepseek"
	"github.com/opentoolhub/search-agent/internal/llm/volcark"
	"github.com/opentoolhub/search-agent/internal/normalize"
	"github.com/opentoolhub/search-agent/internal/ratelimit"
	redisconn "github.com/opentoolhub/search-agent/internal/redis"
	"github.com/opentoolhub/search-agent/internal/sanitize"
	"github.com/opentoolhub/search-agent/internal/search"
)

type Config struct {
	Port     string
	LogLevel string

	DeepSeekKey     string
	DeepSeekModelID string
	VolcArkKey      string
	VolcArkModelID  string
	ProviderTimeout time.Duration

	RedisAddr     string
	RedisPassword string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	CacheTTL        time.Duration
	RateLimitMax    int64
	RateLimitWindow time.Duration
}

type Dependencies struct {
	Gate         *sanitize.Gate
	Normalizer   *normalize.Normalizer
	Store        cache.Store
	Orchestrator *search.Orchestrator
	Sink         analytics.Sink
	Limiter      ratelimit.Limiter
	Logger       *zerolog.Logger

	closers []func()
}

func LoadConfig() *Config {
	return &Config{
		Port:            getEnv("PORT", "18090"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DeepSeekKey:     getEnv("DEEPSEEK_API_KEY", ""),
		DeepSeekModelID: getEnv("DEEPSEEK_MODEL_ID", ""),
		VolcArkKey:      getEnv("VOLC_ARK_API_KEY", ""),
		VolcArkModelID:  getEnv("VOLC_ARK_MODEL_ID", ""),
		ProviderTimeout: time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 60)) * time.Second,
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		DBHost:          getEnv("DB_HOST", ""),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", ""),
		DBName:          getEnv("DB_NAME", "toolsearch"),
		DBSSLMode:       getEnv("DB_SSLMODE", "disable"),
		CacheTTL:        time.Duration(getEnvInt("CACHE_TTL_SECONDS", int(cache.DefaultTTL.Seconds()))) * time.Second,
		RateLimitMax:    int64(getEnvInt("RATE_LIMIT_MAX", 30)),
		RateLimitWindow: time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
	}
}

// Wire assembles the service. The cache, quota and log collaborators are
// optional at runtime: when their backing stores are unreachable the
// search flow still works, it just misses, allows, or drops respectively.
func Wire(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	taxonomy, err := config.LoadTaxonomy()
	if err != nil {
		logger.Warn().Err(err).Msg("taxonomy config not loaded, using compiled-in defaults")
		taxonomy = config.DefaultTaxonomy()
	}

	normalizer, err := normalize.New(taxonomy)
	if err != nil {
		return nil, fmt.Errorf("failed to build normalizer: %w", err)
	}

	providers, err := buildProviders(cfg, logger)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Gate:       sanitize.NewGate(taxonomy),
		Normalizer: normalizer,
		Store:      cache.Noop(),
		Sink:       analytics.NopSink(),
		Limiter:    ratelimit.Unlimited(),
		Logger:     logger,
	}

	if client, err := redisconn.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, 3, logger); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, running without cache or quota enforcement")
	} else {
		deps.Store = cache.NewRedisStore(client, logger)
		deps.Limiter = ratelimit.NewFixedWindow(client, cfg.RateLimitMax, cfg.RateLimitWindow, logger)
		deps.closers = append(deps.closers, func() { _ = client.Close() })
	}

	if cfg.DBHost == "" {
		logger.Warn().Msg("no log database configured, flow records will be dropped")
	} else if db, err := connectDatabase(ctx, cfg); err != nil {
		logger.Warn().Err(err).Msg("log database unavailable, flow records will be dropped")
	} else {
		recorder := analytics.NewRecorder(analytics.NewPostgresRepository(db), logger)
		deps.Sink = recorder
		deps.closers = append(deps.closers, recorder.Close, db.Close)
	}

	deps.Orchestrator = search.New(providers, deps.Store, logger,
		search.WithProviderTimeout(cfg.ProviderTimeout),
		search.WithCacheTTL(cfg.CacheTTL),
	)

	return deps, nil
}

// Close shuts down background workers and connection pools.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// buildProviders returns the fallback chain in preference order: DeepSeek
// first for latency, Volc Ark second. A missing key drops that provider
// from the chain.
func buildProviders(cfg *Config, logger *zerolog.Logger) ([]llm.Provider, error) {
	var providers []llm.Provider

	if cfg.DeepSeekKey != "" {
		client, err := deepseek.NewClient(cfg.DeepSeekKey, cfg.DeepSeekModelID)
		if err != nil {
			return nil, fmt.Errorf("failed to create DeepSeek client: %w", err)
		}
		providers = append(providers, client)
	} else {
		logger.Warn().Msg("DEEPSEEK_API_KEY not configured")
	}

	if cfg.VolcArkKey != "" {
		client, err := volcark.NewClient(cfg.VolcArkKey, cfg.VolcArkModelID)
		if err != nil {
			return nil, fmt.Errorf("failed to create Volc Ark client: %w", err)
		}
		providers = append(providers, client)
	} else {
		logger.Warn().Msg("VOLC_ARK_API_KEY not configured")
	}

	if len(providers) == 0 {
		logger.Warn().Msg("no LLM providers configured, every generation will fail")
	}

	return providers, nil
}

func connectDatabase(ctx context.Context, cfg *Config) (*database.DB, error) {
	db, err := database.New(ctx, database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}

	return value
}
