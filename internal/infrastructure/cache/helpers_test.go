package cache

import "github.com/crm/backend/internal/infrastructure/config"

// unreachableRedis points at a port nothing listens on
func unreachableRedis() config.RedisConfig {
	return config.RedisConfig{Host: "127.0.0.1", Port: 1}
}
