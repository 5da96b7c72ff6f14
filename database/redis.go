package database

import (
	"context"

	"wedding-backend/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Redis *redis.Client

func ConnectRedis() {
	Redis = redis.NewClient(&redis.Options{
		Addr: config.AppConfig.RedisURL,
	})

	_, err := Redis.Ping(context.Background()).Result()
	if err != nil {
		log.Warn().Err(err).Msg("Redis not available, running without cache")
		Redis = nil
		return
	}

	log.Info().Msg("Redis connected")
}
