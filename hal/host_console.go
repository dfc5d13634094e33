//go:build !tinygo

package hal

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapConsole is a kernel.Console writing each line as an info entry.
type ZapConsole struct {
	log *zap.Logger
}

func NewZapConsole(log *zap.Logger) *ZapConsole {
	return &ZapConsole{log: log}
}

func (c *ZapConsole) WriteLineString(s string) {
	if msg, ok := strings.CutPrefix(s, "kernel panic: "); ok {
		c.log.Error(msg, zap.Bool("panic", true))
		return
	}
	c.log.Info(s)
}

// NewLogger builds the host logger. dev selects zap's development
// encoder.
func NewLogger(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = lvl
	return cfg.Build()
}
