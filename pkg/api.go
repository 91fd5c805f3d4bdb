package pkg

import (
	"github.com/provide-io/msikit/pkg/msi/build"
)

// BuildInstaller builds the MSI installer described by the product-info
// file. outputPath overrides the metadata's output path when non-empty.
func BuildInstaller(infoPath, outputPath string, verbose bool) error {
	return build.Run(infoPath, outputPath, verbose)
}

// BuildInstallerWithLogLevel is BuildInstaller with explicit log level
// control.
func BuildInstallerWithLogLevel(infoPath, outputPath string, verbose bool, logLevel string) error {
	return build.RunWithLogLevel(infoPath, outputPath, verbose, logLevel)
}
