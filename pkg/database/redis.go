// Package database 负责初始化外部存储介质的连接。
package database

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// NewRedis 创建并验证一个 Redis 客户端连接。
func NewRedis(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// 测试连接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
