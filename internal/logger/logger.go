package logger

import (
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/natefinch/lumberjack"
	"github.com/nsxzhou1114/gram-api/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger 全局日志实例，初始化前为空日志
	Logger        = zap.NewNop()
	SugaredLogger = Logger.Sugar()

	loggerOnce  sync.Once
	atomicLevel = zap.NewAtomicLevel()
)

// Init 按全局配置初始化日志，只生效一次
func Init() error {
	cfg := config.GlobalConfig.Log
	loggerOnce.Do(func() {
		InitLogger(&cfg)
	})
	return nil
}

// Sync 刷新缓冲
func Sync() error {
	return Logger.Sync()
}

func parseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(level)
	if err != nil || level == "" {
		return zapcore.InfoLevel
	}
	return l
}

// SetLevel 运行时调整日志级别，配置热更新时调用
func SetLevel(level string) {
	atomicLevel.SetLevel(parseLevel(level))
}

// output 日志输出目标，配置了文件时按大小轮转
func output(cfg *config.LogConfig) zapcore.WriteSyncer {
	if cfg.Filename == "" {
		return zapcore.AddSync(os.Stdout)
	}
	file := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge, // days
		Compress:   cfg.Compress,
	})
	if !cfg.Stdout {
		return file
	}
	return zapcore.NewMultiWriteSyncer(file, zapcore.AddSync(os.Stdout))
}

// InitLogger 创建JSON日志并替换全局实例
func InitLogger(cfg *config.LogConfig) {
	atomicLevel.SetLevel(parseLevel(cfg.Level))

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.MillisDurationEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), output(cfg), atomicLevel)
	Logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Named("gram")
	SugaredLogger = Logger.Sugar()
}

// GetSugaredLogger 服务与控制器使用的日志实例
func GetSugaredLogger() *zap.SugaredLogger {
	return SugaredLogger
}

// GinLogger 请求日志，5xx记为错误，4xx记为警告
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("cost", time.Since(start)),
		}
		// 认证中间件写入的当前用户
		if userID, ok := c.Get("userID"); ok {
			fields = append(fields, zap.Any("user_id", userID))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, zap.String("errors", errs))
		}

		switch {
		case status >= 500:
			Logger.Error("HTTP请求", fields...)
		case status >= 400:
			Logger.Warn("HTTP请求", fields...)
		default:
			Logger.Info("HTTP请求", fields...)
		}
	}
}

// Debug 调试日志
func Debug(msg string, fields ...zap.Field) { Logger.Debug(msg, fields...) }

// Info 信息日志
func Info(msg string, fields ...zap.Field) { Logger.Info(msg, fields...) }

// Warn 警告日志
func Warn(msg string, fields ...zap.Field) { Logger.Warn(msg, fields...) }

// Error 错误日志
func Error(msg string, fields ...zap.Field) { Logger.Error(msg, fields...) }

// Fatal 记录后退出进程
func Fatal(msg string, fields ...zap.Field) { Logger.Fatal(msg, fields...) }

// Infof 格式化信息日志
func Infof(format string, args ...interface{}) { SugaredLogger.Infof(format, args...) }

// Warnf 格式化警告日志
func Warnf(format string, args ...interface{}) { SugaredLogger.Warnf(format, args...) }

// Errorf 格式化错误日志
func Errorf(format string, args ...interface{}) { SugaredLogger.Errorf(format, args...) }
