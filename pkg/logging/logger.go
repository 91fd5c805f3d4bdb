// Package logging builds the hclog loggers used across the builder. Human
// output carries a 📦 line prefix; JSON output is left untouched for log
// shippers.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
)

// NewLogger creates an hclog logger with the builder's standard settings:
// UTC timestamps and, for human-readable output, the 📦 line prefix.
// MSIKIT_JSON_LOG=1 forces JSON output regardless of jsonFormat.
func NewLogger(name string, level string, jsonFormat bool, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	if os.Getenv("MSIKIT_JSON_LOG") == "1" {
		jsonFormat = true
	}

	if !jsonFormat {
		output = NewPrefixWriter("📦 ", output)
	}

	opts := &hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	}

	return hclog.New(opts)
}

// GetLogLevel returns the log level from MSIKIT_LOG_LEVEL, defaulting to info.
func GetLogLevel() string {
	level := os.Getenv("MSIKIT_LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	return level
}
