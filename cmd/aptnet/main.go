// Command aptnet evaluates learner cases against a course network from the
// command line.
//
//	aptnet assess 3 true true false true true false true
//	aptnet assess -t --net course.yaml 0 true false
//	aptnet inspect --net course.yaml
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Harshitk-cp/aptnet/internal/config"
	"github.com/Harshitk-cp/aptnet/internal/service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "aptnet: failed to load config:", err)
		os.Exit(1)
	}

	logger := newLogger(config.LogLevel())
	defer func() { _ = logger.Sync() }()

	if err := newRootCmd(logger).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "aptnet:", err)
		if errors.Is(err, service.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// newLogger builds a console logger on stderr so stdout carries only
// results.
func newLogger(level string) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
