package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/provide-io/msikit/pkg"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	infoPath    string
	outputPath  string
	verbose     bool
	logLevel    string
	rootCmd     *cobra.Command
	versionFlag bool
)

func getBuilderTimestamp() string {
	// Try to get vcs.time from build info
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	// Fallback to binary modification time
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "msikit-builder",
		Short: "Build MSI installer payloads",
		Long:  `Prepare a payload directory from product metadata and build a Windows MSI installer with the external installer-builder`,
		Run:   buildInstaller,
	}

	rootCmd.Flags().StringVarP(&infoPath, "info", "i", "", "Path to product-info JSON (required)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path for the MSI (overrides _outpath)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Pass verbose output through from the installer-builder")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	if err := rootCmd.MarkFlagRequired("info"); err != nil {
		panic(err)
	}
}

func main() {
	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Printf("msikit-builder %s\n", version)
		fmt.Printf("Built: %s\n", getBuilderTimestamp())
		os.Exit(0)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildInstaller(cmd *cobra.Command, args []string) {
	if versionFlag {
		fmt.Printf("msikit-builder %s\n", version)
		fmt.Printf("Built: %s\n", getBuilderTimestamp())
		return
	}

	if err := pkg.BuildInstallerWithLogLevel(infoPath, outputPath, verbose, logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
