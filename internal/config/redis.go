package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns nil without error when REDIS_ADDR is not set
func ConnectRedis(cfg *Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		log.Println("⚠️ REDIS_ADDR not set, payment token cache stays in-process")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("✅ Redis connected [%s]", cfg.Redis.Addr)
	return client, nil
}
