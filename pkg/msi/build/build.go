// Package build drives a full installer build: payload preparation, the
// external installer-builder subprocess and artifact relocation.
package build

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/hashicorp/go-hclog"
	msierrors "github.com/provide-io/msikit/pkg/msi/errors"
	"github.com/provide-io/msikit/pkg/msi/info"
	"github.com/provide-io/msikit/pkg/msi/payload"
)

const (
	// briefcaseExe is the external installer-builder command.
	briefcaseExe = "briefcase"

	// artifactExt is the extension of the artifact the tool produces.
	artifactExt = ".msi"
)

// Installer builds the MSI installer described by the product metadata.
//
// The payload root is deleted on success unless the metadata requests debug
// retention. On failure the root is left behind for diagnosis.
func Installer(logger hclog.Logger, pi *info.ProductInfo, verbose bool) error {
	return installer(logger, pi, verbose, runtime.GOOS)
}

// installer is Installer with the platform pinned, for tests.
func installer(logger hclog.Logger, pi *info.ProductInfo, verbose bool, goos string) error {
	// Checked first: everything after this point assumes Windows paths
	// and a Windows installer toolchain.
	if goos != "windows" {
		return fmt.Errorf("%w: invalid platform %q, MSI installers require Windows", msierrors.ErrPlatform, goos)
	}

	p := payload.New(pi, logger)
	layout, err := p.Prepare(true)
	if err != nil {
		return err
	}

	tool, err := findBriefcase()
	if err != nil {
		return err
	}

	logger.Info("🏗️ Building MSI installer", "tool", tool, "root", layout.Root)
	args := []string{"package"}
	if verbose {
		args = append(args, "-v")
	}
	cmd := exec.Command(tool, args...)
	cmd.Dir = layout.Root
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s package: %v", msierrors.ErrBuild, tool, err)
	}

	artifact, err := locateArtifact(filepath.Join(layout.Root, "dist"))
	if err != nil {
		return err
	}

	if err := moveFile(artifact, pi.Outpath); err != nil {
		return fmt.Errorf("moving installer to %s: %w", pi.Outpath, err)
	}
	logger.Info("✅ Installer written", "path", pi.Outpath)

	if !pi.Debug {
		if err := p.Remove(); err != nil {
			return err
		}
	}
	return nil
}

// findBriefcase locates the installer-builder executable: an explicit
// MSIKIT_BRIEFCASE_EXE override, then the PATH.
func findBriefcase() (string, error) {
	if override := os.Getenv("MSIKIT_BRIEFCASE_EXE"); override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("%w: installer-builder %q does not exist", msierrors.ErrNotFound, override)
		}
		return override, nil
	}

	tool, err := exec.LookPath(briefcaseExe)
	if err != nil {
		return "", fmt.Errorf("%w: dependency %q does not seem to be installed: %v",
			msierrors.ErrNotFound, briefcaseExe, err)
	}
	return tool, nil
}

// locateArtifact finds the single installer artifact the tool produced.
func locateArtifact(distDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(distDir, "*"+artifactExt))
	if err != nil {
		return "", err
	}
	if len(matches) != 1 {
		return "", fmt.Errorf("%w: found %d %s files in %s, expected 1",
			msierrors.ErrBuild, len(matches), artifactExt, distDir)
	}
	return matches[0], nil
}

// moveFile moves src to dst, replacing any existing file there. Falls back
// to copy + delete when a rename crosses filesystems.
func moveFile(src, dst string) error {
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
