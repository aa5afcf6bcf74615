package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

/* ========================================================================
 * Logger - 统一日志组件
 * ========================================================================
 * 职责: 提供结构化日志能力，支持 JSON / Console 格式
 * 技术: Uber Zap + Lumberjack 文件滚动
 * 输出: output 为空或 "stdout" 走标准输出，否则按文件路径滚动写入
 * ======================================================================== */

// Config Logger 配置
type Config struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json, console
	Output string `yaml:"output" mapstructure:"output"` // stdout 或日志文件路径

	// 文件滚动参数，仅文件输出时生效
	MaxSizeMB  int `yaml:"max_size_mb" mapstructure:"max_size_mb"`   // 单文件上限，默认 50
	MaxBackups int `yaml:"max_backups" mapstructure:"max_backups"`   // 保留文件数，默认 5
	MaxAgeDays int `yaml:"max_age_days" mapstructure:"max_age_days"` // 保留天数，默认 30
}

// Logger 封装 Zap Logger
type Logger struct {
	*zap.Logger
}

// ValidateConfig 校验日志配置
func ValidateConfig(cfg Config) error {
	switch cfg.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logger: invalid level %q", cfg.Level)
	}
	switch cfg.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logger: invalid format %q", cfg.Format)
	}
	return nil
}

// NewLogger 初始化 Logger
// 非法的 level 回落到 info，保证永远能拿到可用的 Logger
func NewLogger(cfg Config) *Logger {
	level := zap.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level = zap.InfoLevel
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var writer zapcore.WriteSyncer
	if cfg.Output == "" || cfg.Output == "stdout" {
		writer = zapcore.AddSync(os.Stdout)
	} else {
		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 50
		}
		maxBackups := cfg.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 5
		}
		maxAge := cfg.MaxAgeDays
		if maxAge <= 0 {
			maxAge = 30
		}
		writer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			MaxAge:     maxAge,
			Compress:   true,
		})
	}

	core := zapcore.NewCore(encoder, writer, level)
	return &Logger{Logger: zap.New(core, zap.AddCaller())}
}

// NewNop 创建丢弃所有输出的 Logger，测试用
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// WithTrace 绑定单次请求的 trace id
func (l *Logger) WithTrace(traceID string) *zap.Logger {
	if traceID == "" {
		return l.Logger
	}
	return l.Logger.With(zap.String("trace_id", traceID))
}
