package logger

import (
	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger to provide logging functionality
type Logger struct {
	*zap.SugaredLogger
}

// Global logger for convenience
var L *Logger

// NewLogger creates a Logger at the configured level
func NewLogger(cfg *config.Configuration) (*Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel(cfg.Logging.Level))
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		SugaredLogger: zapLogger.Sugar(),
	}, nil
}

func zapLevel(level types.LogLevel) zapcore.Level {
	switch level {
	case types.LogLevelDebug:
		return zapcore.DebugLevel
	case types.LogLevelWarn:
		return zapcore.WarnLevel
	case types.LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// The global logger exists for scripts and early startup paths; everything
// else receives the logger through dependency injection.
func init() {
	zapLogger, _ := zap.NewProduction()
	L = &Logger{SugaredLogger: zapLogger.Sugar()}
}

func (l *Logger) Debugf(template string, args ...interface{}) {
	l.SugaredLogger.Debugf(template, args...)
}

func (l *Logger) Infof(template string, args ...interface{}) {
	l.SugaredLogger.Infof(template, args...)
}

func (l *Logger) Warnf(template string, args ...interface{}) {
	l.SugaredLogger.Warnf(template, args...)
}

func (l *Logger) Errorf(template string, args ...interface{}) {
	l.SugaredLogger.Errorf(template, args...)
}

func (l *Logger) Fatalf(template string, args ...interface{}) {
	l.SugaredLogger.Fatalf(template, args...)
}
