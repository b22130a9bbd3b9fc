// Package logging configures the structured logger used across the pipeline.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console logger. Verbose mode lowers the level to debug.
func New(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// NewWithFile builds a logger that writes to the console and to a dated log
// file under logsDir (pipeline_YYYY-MM-DD.log). The directory is created if
// missing. Errors opening the file degrade to console-only logging.
func NewWithFile(logsDir string, verbose bool) (*zap.Logger, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return New(verbose), fmt.Errorf("failed to create logs dir: %w", err)
	}

	logFile := filepath.Join(logsDir, fmt.Sprintf("pipeline_%s.log", time.Now().Format("2006-01-02")))

	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	cfg.OutputPaths = []string{"stdout", logFile}
	cfg.ErrorOutputPaths = []string{"stderr", logFile}

	logger, err := cfg.Build()
	if err != nil {
		return New(verbose), fmt.Errorf("failed to open log file sink: %w", err)
	}
	return logger, nil
}
