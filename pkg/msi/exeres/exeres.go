// Package exeres brands the staged runtime executable with Windows PE
// resources: a VS_VERSION_INFO block carrying the product identity and,
// when an icon image is configured, an RT_GROUP_ICON.
package exeres

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/nfnt/resize"
	"github.com/provide-io/msikit/pkg/msi/info"
	"github.com/tc-hib/winres"
	"github.com/tc-hib/winres/version"

	_ "image/png"
)

// resourceLang is the language ID for all stamped resources (0x0409 = en-US).
const resourceLang = 0x0409

// iconSizes is the standard Windows icon size ladder.
var iconSizes = []uint{16, 24, 32, 48, 64, 128, 256}

// Stamp rewrites the executable's resource section in place, going through a
// temporary file so a failed write never leaves a half-patched executable.
func Stamp(logger hclog.Logger, exePath string, pi *info.ProductInfo) error {
	logger.Info("🪟 Stamping PE resources", "exe", exePath)

	rs, err := loadResources(exePath, logger)
	if err != nil {
		return err
	}

	vi, err := buildVersionInfo(pi)
	if err != nil {
		return err
	}
	rs.SetVersionInfo(*vi)

	if pi.IconImage != "" {
		icon, err := loadIcon(pi.IconImage)
		if err != nil {
			return err
		}
		if err := rs.SetIcon(winres.Name("APPICON"), icon); err != nil {
			return fmt.Errorf("setting icon resource: %w", err)
		}
		logger.Debug("🎨 Icon resource set", "source", pi.IconImage)
	}

	return writeResources(exePath, rs, logger)
}

// loadResources reads the existing resource section; an executable without
// one gets a fresh resource set.
func loadResources(exePath string, logger hclog.Logger) (*winres.ResourceSet, error) {
	f, err := os.Open(exePath)
	if err != nil {
		return nil, fmt.Errorf("opening executable: %w", err)
	}
	defer f.Close()

	rs, err := winres.LoadFromEXE(f)
	if err != nil {
		logger.Debug("Creating new resource set (no existing resources)", "error", err)
		return &winres.ResourceSet{}, nil
	}
	return rs, nil
}

// buildVersionInfo composes the VS_VERSION_INFO block from the product
// metadata.
func buildVersionInfo(pi *info.ProductInfo) (*version.Info, error) {
	vi := &version.Info{}
	fixed := fixedVersion(pi.Version)
	vi.SetFileVersion(fixed)
	vi.SetProductVersion(pi.Version)

	entries := map[string]string{
		version.ProductName:      pi.Name,
		version.ProductVersion:   pi.Version,
		version.FileVersion:      fixed,
		version.FileDescription:  fmt.Sprintf("%s runtime", pi.Name),
		version.OriginalFilename: "_conda.exe",
	}
	if pi.Company != "" {
		entries[version.CompanyName] = pi.Company
	}
	for key, value := range entries {
		if err := vi.Set(resourceLang, key, value); err != nil {
			return nil, fmt.Errorf("setting version field %s: %w", key, err)
		}
	}
	return vi, nil
}

// fixedVersion coerces a version string into the 4-part numeric form the
// fixed version-info fields require, e.g. "24.1.2" -> "24.1.2.0".
func fixedVersion(v string) string {
	numbers := make([]string, 0, 4)
	for _, part := range strings.Split(v, ".") {
		digits := part
		for i, r := range part {
			if r < '0' || r > '9' {
				digits = part[:i]
				break
			}
		}
		if digits == "" {
			break
		}
		if _, err := strconv.Atoi(digits); err != nil {
			break
		}
		numbers = append(numbers, digits)
		if len(numbers) == 4 {
			break
		}
	}
	for len(numbers) < 4 {
		numbers = append(numbers, "0")
	}
	return strings.Join(numbers, ".")
}

// loadIcon decodes the configured image and builds the icon size ladder.
func loadIcon(path string) (*winres.Icon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening icon image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding icon image %s: %w", path, err)
	}

	images := make([]image.Image, 0, len(iconSizes))
	for _, size := range iconSizes {
		images = append(images, resize.Resize(size, size, img, resize.Lanczos3))
	}

	icon, err := winres.NewIconFromImages(images)
	if err != nil {
		return nil, fmt.Errorf("building icon: %w", err)
	}
	return icon, nil
}

// writeResources writes the patched executable next to the original and
// replaces it only after a fully successful write.
func writeResources(exePath string, rs *winres.ResourceSet, logger hclog.Logger) error {
	fi, err := os.Stat(exePath)
	if err != nil {
		return fmt.Errorf("stat executable: %w", err)
	}

	in, err := os.Open(exePath)
	if err != nil {
		return fmt.Errorf("opening executable: %w", err)
	}

	tmpPath := exePath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		in.Close()
		return fmt.Errorf("creating temporary executable: %w", err)
	}

	werr := rs.WriteToEXE(out, in)

	// Close before rename; Windows locks open files.
	if cerr := out.Close(); werr == nil {
		werr = cerr
	}
	if cerr := in.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing resources to %s: %w", filepath.Base(exePath), werr)
	}

	if err := os.Rename(tmpPath, exePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing executable: %w", err)
	}
	if err := os.Chmod(exePath, fi.Mode()); err != nil {
		return fmt.Errorf("restoring executable mode: %w", err)
	}

	logger.Debug("✅ PE resources written", "exe", exePath)
	return nil
}
