package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPPort int
	LogLevel string

	MySQLDSN  string
	RedisAddr string

	CacheTTL       time.Duration
	MigrationsPath string
}

func Load() Config {
	return Config{
		HTTPPort:       getEnvInt("HTTP_PORT", 8080),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MySQLDSN:       getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/shoppingcart?parseTime=true"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTTL:       getEnvDuration("CACHE_TTL", 15*time.Minute),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}

	return d
}
