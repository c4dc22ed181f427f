// Package logging builds the diagnostic logger of the commands.
package logging

import (
	"go.uber.org/zap"
)

// NewLogger returns a development logger writing to stderr, at debug level
// when debug is set.
func NewLogger(name string, debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Named(name).Sugar(), nil
}
