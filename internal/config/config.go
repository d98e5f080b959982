package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppPort string

	PostgresDSN string
	RedisAddr   string

	// Hacker News Firebase API
	HNBaseURL string

	// 豆包（Ark）OpenAI 兼容接口
	ArkAPIKey  string
	ArkBaseURL string
	ArkModel   string

	// 榜单缓存 TTL；生成成功的笔记不设 TTL（视为持久事实，重生成需管理端触发）
	CatalogTTL time.Duration

	// 每次生成调用的超时；四路生成各自独立计时
	GenerateTimeout time.Duration

	// 定时任务：榜单刷新与预生成
	CatalogCronSpec string
	WarmCronSpec    string
	WarmCount       int

	// 管理接口的 Basic Auth；两者均非空时启用
	BasicAuthUser string
	BasicAuthPass string
}

func Load() *Config {
	cfg := &Config{
		AppPort:     getEnv("APP_PORT", "9000"),
		PostgresDSN: getEnv("POSTGRES_DSN", "host=localhost user=redtrend password=redtrend dbname=redtrend port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6380"),

		HNBaseURL: getEnv("HN_BASE_URL", "https://hacker-news.firebaseio.com/v0"),

		ArkAPIKey:  getEnv("ARK_API_KEY", ""),
		ArkBaseURL: getEnv("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkModel:   getEnv("ARK_MODEL", "ep-20240820165714-ckvrz"),

		CatalogTTL:      getEnvDuration("CATALOG_TTL", 24*time.Hour),
		GenerateTimeout: getEnvDuration("GENERATE_TIMEOUT", 30*time.Second),

		CatalogCronSpec: getEnv("CATALOG_CRON_SPEC", "0 0 * * *"),
		WarmCronSpec:    getEnv("WARM_CRON_SPEC", "30 0 * * *"),
		WarmCount:       getEnvInt("WARM_COUNT", 30),

		BasicAuthUser: getEnv("APP_BASIC_USER", ""),
		BasicAuthPass: getEnv("APP_BASIC_PASS", ""),
	}

	log.Printf("config loaded: port=%s catalog_ttl=%s warm_count=%d", cfg.AppPort, cfg.CatalogTTL, cfg.WarmCount)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("config: invalid %s=%q, use default %d", key, v, def)
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		log.Printf("config: invalid %s=%q, use default %s", key, v, def)
	}
	return def
}
