package build

import (
	"io"
	"os"
	"strings"

	"github.com/provide-io/msikit/pkg/logging"
	"github.com/provide-io/msikit/pkg/msi/info"
)

// RunWithLogLevel loads a product-info file and builds its installer with
// explicit log level control.
//
// outputPath, when non-empty, overrides the metadata's output path.
func RunWithLogLevel(infoPath, outputPath string, verbose bool, cliLogLevel string) error {
	// Determine log level and source
	var logLevel string
	var logSource string

	if cliLogLevel != "" {
		logLevel = cliLogLevel
		logSource = "CLI --log-level"
	} else if envLevel := os.Getenv("MSIKIT_BUILDER_LOG_LEVEL"); envLevel != "" {
		logLevel = envLevel
		logSource = "MSIKIT_BUILDER_LOG_LEVEL"
	} else if envLevel := os.Getenv("MSIKIT_LOG_LEVEL"); envLevel != "" {
		logLevel = envLevel
		logSource = "MSIKIT_LOG_LEVEL"
	} else {
		logLevel = logging.GetLogLevel()
		logSource = "default"
	}

	// Parse JSON format from log level
	jsonFormat := false
	actualLevel := logLevel
	if strings.HasPrefix(logLevel, "json") {
		jsonFormat = true
		parts := strings.Split(logLevel, ":")
		if len(parts) > 1 {
			actualLevel = parts[1]
		} else {
			actualLevel = "info"
		}
	}

	// Configure logger
	var output io.Writer = os.Stderr

	// Support log file output
	if logPath := os.Getenv("MSIKIT_LOG_PATH"); logPath != "" {
		if file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			output = file
		}
	}

	logger := logging.NewLogger("msikit-builder", actualLevel, jsonFormat, output)

	logger.Info("📦📦📦 Hello from the msikit builder 📦📦📦")
	logger.Debug("Log level", "level", actualLevel, "source", logSource)

	pi, err := info.Load(infoPath)
	if err != nil {
		return err
	}
	if outputPath != "" {
		pi.Outpath = outputPath
	}

	return Installer(logger, pi, verbose)
}

// Run builds with the default log level resolution.
func Run(infoPath, outputPath string, verbose bool) error {
	return RunWithLogLevel(infoPath, outputPath, verbose, "")
}
