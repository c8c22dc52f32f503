package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/config"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/middleware/requestid"
)

// New builds the application logger. Production gets JSON at info level,
// everything else gets a development config; both can be overridden via
// the log section of the configuration.
func New(cfg *config.Config) (*zap.Logger, error) {
	base := zap.NewDevelopmentConfig()
	if cfg.Env == config.EnvProduction {
		base = zap.NewProductionConfig()
	}

	if cfg.Log.Format == "console" {
		base.Encoding = "console"
	} else {
		base.Encoding = "json"
	}
	if cfg.Log.Level != "" {
		base.Level = parseLevel(cfg.Log.Level)
	}

	base.EncoderConfig.TimeKey = "timestamp"
	base.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return base.Build()
}

// parseLevel falls back to info on an unknown level string.
func parseLevel(level string) zap.AtomicLevel {
	atomic := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if err := atomic.UnmarshalText([]byte(level)); err != nil {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return atomic
}

// GinMiddleware logs one line per request after the handler chain finishes.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if reqID := requestid.Value(c); reqID != "" {
			fields = append(fields, zap.String("request_id", reqID))
		}
		l.Info("http_request", fields...)
	}
}
