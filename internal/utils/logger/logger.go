package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global *zap.SugaredLogger

// Init sets the process-wide logger once, typically from main.
func Init(z *zap.SugaredLogger) { global = z }

// Logger returns the process-wide logger. It must return a non-nil
// *SugaredLogger even before Init has run, so packages can capture it
// at variable-initialization time.
func Logger() *zap.SugaredLogger {
	if global == nil {
		return zap.NewNop().Sugar()
	}
	return global
}

// Setup builds a console logger at the requested level, installs it as
// the global logger and returns it. Level accepts the zap level names
// (debug, info, warn, error); empty means info.
func Setup(level string) (*zap.SugaredLogger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	s := z.Sugar()
	Init(s)
	zap.ReplaceGlobals(z)
	return s, nil
}
