package redis

import (
	"fmt"

	"github.com/go-redis/redis/v8"
)

// NewUniversalClient creates a redis client from a redis:// or rediss:// URL.
func NewUniversalClient(redisURL string, options ...ConfigOption) (redis.UniversalClient, error) {
	redisOptions, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	for _, opt := range options {
		opt(redisOptions)
	}
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{redisOptions.Addr},
		DB:           redisOptions.DB,
		Username:     redisOptions.Username,
		Password:     redisOptions.Password,
		TLSConfig:    redisOptions.TLSConfig,
		DialTimeout:  redisOptions.DialTimeout,
		ReadTimeout:  redisOptions.ReadTimeout,
		WriteTimeout: redisOptions.WriteTimeout,
		PoolSize:     redisOptions.PoolSize,
		MinIdleConns: redisOptions.MinIdleConns,
		MaxRetries:   redisOptions.MaxRetries,
	}), nil
}

// ConfigOption adjusts parsed client options.
type ConfigOption func(*redis.Options)
