/*
 * ====================================================================
 * 应用配置
 *
 * 功能说明:
 *       bookctl 的顶层配置结构，覆盖后端地址、会话存储后端、
 *       本地缓存路径与日志。缺省值面向单机使用开箱即用。
 * ====================================================================
 */

package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bookwise/bookwise-go/logger"
	"github.com/bookwise/bookwise-go/session"
)

// 会话存储后端
const (
	SessionBackendMemory = "memory"
	SessionBackendFile   = "file"
	SessionBackendRedis  = "redis"
)

// ServerConfig 后端服务地址
type ServerConfig struct {
	BaseURL  string        `yaml:"base_url" mapstructure:"base_url"`
	BasePath string        `yaml:"base_path" mapstructure:"base_path"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SessionConfig 会话持久化配置
type SessionConfig struct {
	Backend string              `yaml:"backend" mapstructure:"backend"`
	File    string              `yaml:"file" mapstructure:"file"`
	Redis   session.RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// CacheConfig 本地分析缓存配置
type CacheConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Config bookctl 顶层配置
type Config struct {
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Session SessionConfig `yaml:"session" mapstructure:"session"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Logger  logger.Config `yaml:"logger" mapstructure:"logger"`
}

// Default 返回带缺省值的配置
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".bookwise")
	return Config{
		Server: ServerConfig{
			BasePath: "/api",
			Timeout:  30 * time.Second,
		},
		Session: SessionConfig{
			Backend: SessionBackendFile,
			File:    filepath.Join(dataDir, "session.json"),
		},
		Cache: CacheConfig{
			Path: filepath.Join(dataDir, "cache.db"),
		},
		Logger: logger.Config{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
	}
}

// Validate 校验配置完整性
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("conf: server.base_url is required")
	}
	switch c.Session.Backend {
	case SessionBackendMemory, SessionBackendRedis:
	case SessionBackendFile:
		if c.Session.File == "" {
			return fmt.Errorf("conf: session.file is required for the file backend")
		}
	default:
		return fmt.Errorf("conf: unknown session backend %q", c.Session.Backend)
	}
	return logger.ValidateConfig(c.Logger)
}

// LoadConfig 从目录加载配置并合入缺省值
func LoadConfig(configPath, configName string) (*Config, error) {
	cfg := Default()
	loader := NewLoader(configPath, configName, "yaml")
	if err := loader.Load(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
