package app

import (
	"time"

	"github.com/veloria/rapport-backend/internal/pkg/logger"
	"github.com/veloria/rapport-backend/internal/utils"
)

type Config struct {
	Port           string
	ConfigCacheTTL time.Duration
	Environment    string
	Version        string
}

func LoadConfig(log *logger.Logger) Config {
	port := utils.GetEnv("PORT", "8080", log)
	cacheTTLSeconds := utils.GetEnvAsInt("CONFIG_CACHE_TTL", 30, log)
	environment := utils.GetEnv("APP_ENV", "development", log)
	version := utils.GetEnv("APP_VERSION", "dev", log)
	return Config{
		Port:           port,
		ConfigCacheTTL: time.Duration(cacheTTLSeconds) * time.Second,
		Environment:    environment,
		Version:        version,
	}
}
