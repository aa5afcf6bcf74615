package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

/* ========================================================================
 * Redis Store - Redis 会话存储
 * ========================================================================
 * 职责: 多终端共享同一用户会话时使用（如同一账号的桌面端和脚本端）
 * 技术: go-redis/v9，所有键挂在同一个 Hash 下，namespace 区分用户档案
 * ======================================================================== */

// RedisConfig Redis 会话存储配置
type RedisConfig struct {
	Host      string `yaml:"host" mapstructure:"host"`
	Port      int    `yaml:"port" mapstructure:"port"`
	Password  string `yaml:"password" mapstructure:"password"`
	DB        int    `yaml:"db" mapstructure:"db"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"` // 档案名，默认 default
}

// RedisStore Redis 会话存储
type RedisStore struct {
	rdb     *redis.Client
	key     string
	timeout time.Duration
}

// NewRedisStore 创建 Redis 会话存储并探活
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	store := newRedisStore(rdb, cfg.Namespace)

	ctx, cancel := context.WithTimeout(context.Background(), store.timeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session: redis ping: %w", err)
	}
	return store, nil
}

func newRedisStore(rdb *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "default"
	}
	return &RedisStore{
		rdb:     rdb,
		key:     "bookwise:session:" + namespace,
		timeout: 3 * time.Second,
	}
}

// Close 关闭底层连接
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}

func (r *RedisStore) Get(key string) (string, error) {
	ctx, cancel := r.ctx()
	defer cancel()
	v, err := r.rdb.HGet(ctx, r.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("session: redis get: %w", err)
	}
	return v, nil
}

func (r *RedisStore) Set(key, value string) error {
	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.rdb.HSet(ctx, r.key, key, value).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Del(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.rdb.HDel(ctx, r.key, keys...).Err(); err != nil {
		return fmt.Errorf("session: redis del: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear() error {
	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("session: redis clear: %w", err)
	}
	return nil
}

func (r *RedisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}
