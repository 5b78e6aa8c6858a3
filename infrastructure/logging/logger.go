package logging

import (
	"fmt"

	"github.com/Mr-Georgie/weather-api/application/ports"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Production uses the JSON encoder, everything else the console one.
func New(environment, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	return cfg.Build()
}

// zapAdapter adapts zap.Logger to the ports.Logger interface
type zapAdapter struct {
	logger *zap.Logger
}

// NewAdapter wraps a zap logger. The adapter skips its own frame so callers show up in log lines.
func NewAdapter(logger *zap.Logger) ports.Logger {
	return &zapAdapter{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

// NewNop returns a logger that discards everything.
func NewNop() ports.Logger {
	return &zapAdapter{logger: zap.NewNop()}
}

func (a *zapAdapter) Debug(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, fieldsToZap(keysAndValues)...)
}

func (a *zapAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, fieldsToZap(keysAndValues)...)
}

func (a *zapAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.logger.Warn(msg, fieldsToZap(keysAndValues)...)
}

func (a *zapAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, fieldsToZap(keysAndValues)...)
}

func fieldsToZap(keysAndValues []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
