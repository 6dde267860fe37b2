package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/ecotrace/ecotrace/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging routes the standard logger according to configuration.
// With output "file" or "both", log lines go through a size-rotated file
// writer. The returned closer flushes and closes the rotating writer.
func SetupLogging(cfg config.LoggingConfig) (func(), error) {
	noop := func() {}

	switch cfg.Output {
	case "", "stdout":
		log.SetOutput(os.Stdout)
		return noop, nil
	case "file", "both":
	default:
		return noop, fmt.Errorf("unknown log output %q", cfg.Output)
	}

	if cfg.FilePath == "" {
		return noop, fmt.Errorf("log output %q requires a file path", cfg.Output)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return noop, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	var out io.Writer = rotator
	if cfg.Output == "both" {
		out = io.MultiWriter(os.Stdout, rotator)
	}
	log.SetOutput(out)

	if cfg.EnableCaller {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	return func() { _ = rotator.Close() }, nil
}
