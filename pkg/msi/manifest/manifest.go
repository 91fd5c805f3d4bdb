// Package manifest assembles the configuration file the installer-builder
// parses. The field names and nesting are that tool's contract and must be
// reproduced exactly.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/msikit/pkg/msi/assets"
	"github.com/provide-io/msikit/pkg/msi/identity"
	"github.com/provide-io/msikit/pkg/msi/info"
	"github.com/provide-io/msikit/pkg/msi/options"
	"github.com/provide-io/msikit/pkg/msi/templatefile"
)

// Config is the `tool.briefcase` table. Dynamic keys (the app name, the
// rendered template names) force a map representation over typed structs.
type Config map[string]any

// Build composes the installer-builder configuration from the normalized
// product identity, the install options and the rendered template paths.
//
// externalPath is recorded verbatim as the external package path; rootDir is
// where a placeholder license is materialized when the metadata names none.
func Build(logger hclog.Logger, pi *info.ProductInfo, externalPath, rootDir string,
	rendered []templatefile.TemplateFile) (Config, error) {
	name, version, err := identity.GetNameVersion(logger, pi)
	if err != nil {
		return nil, err
	}
	bundle, appName, err := identity.GetBundleAppName(pi, name)
	if err != nil {
		return nil, err
	}
	installOptions, err := options.BuildInstallOptions(pi)
	if err != nil {
		return nil, err
	}
	license, err := resolveLicense(pi, rootDir)
	if err != nil {
		return nil, err
	}

	app := map[string]any{
		"formal_name":           fmt.Sprintf("%s %s", pi.Name, pi.Version),
		"description":           "", // Required by the tool, unused in the installer.
		"external_package_path": externalPath,
		"use_full_install_path": false,
		"install_launcher":      false,
		"install_option":        installOptions,
	}
	for _, t := range rendered {
		app[t.Name] = t.Dst
	}

	config := Config{
		"project_name": name,
		"bundle":       bundle,
		"version":      version,
		"license":      license,
		"app":          map[string]any{appName: app},
	}
	if pi.Company != "" {
		config["author"] = pi.Company
	}

	return config, nil
}

// WriteTOML serializes the configuration under the tool.briefcase namespace.
func (c Config) WriteTOML(path string) error {
	doc := map[string]any{"tool": map[string]any{"briefcase": map[string]any(c)}}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	err = toml.NewEncoder(f).Encode(doc)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// resolveLicense returns the license table: the user-specified file, or a
// placeholder materialized into rootDir when none is set.
func resolveLicense(pi *info.ProductInfo, rootDir string) (map[string]string, error) {
	if pi.LicenseFile != "" {
		return map[string]string{"file": pi.LicenseFile}, nil
	}

	data, err := assets.FS.ReadFile(assets.PlaceholderLicense)
	if err != nil {
		return nil, fmt.Errorf("reading placeholder license: %w", err)
	}
	placeholder := filepath.Join(rootDir, assets.PlaceholderLicense)
	if err := os.WriteFile(placeholder, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing placeholder license: %w", err)
	}
	return map[string]string{"file": placeholder}, nil
}
