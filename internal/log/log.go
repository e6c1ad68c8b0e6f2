package log

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	mu            sync.RWMutex
	defaultLogger = zap.NewNop()
)

// Get returns the process default logger. It discards everything
// until Set is called.
func Get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

func Set(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
}

type Options struct {
	Enabled bool
	Verbose bool
	// Path is the output file; empty means stderr.
	Path string
}

// New builds a logger: JSON at info level by default and a development
// console logger at debug level when verbose.
func New(opts Options) (*zap.Logger, error) {
	if !opts.Enabled {
		return zap.NewNop(), nil
	}

	zapConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(zap.InfoLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	if opts.Verbose {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zapConfig.Development = true
		zapConfig.Sampling = nil
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	if opts.Path != "" {
		zapConfig.OutputPaths = []string{opts.Path}
		zapConfig.ErrorOutputPaths = []string{opts.Path}
	}

	l, err := zapConfig.Build()
	return l, errors.WithStack(err)
}

func Flush() {
	_ = Get().Sync()
}
