// Package options computes the user-facing install options shown by the
// installer UI.
package options

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	msierrors "github.com/provide-io/msikit/pkg/msi/errors"
	"github.com/provide-io/msikit/pkg/msi/info"
)

// InstallOption is one toggle on the installer's options page.
type InstallOption struct {
	Name        string `toml:"name"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Default     bool   `toml:"default"`
}

// optionRule pairs a predicate with an option builder. Rules are evaluated in
// slice order, and that order is the presentation order in the installer UI.
type optionRule struct {
	name  string
	build func(pi *info.ProductInfo) ([]InstallOption, error)
}

// rules is the fixed option order: python registration, PATH initialization,
// cache clearing, shortcuts, pre-install script, post-install script.
var rules = []optionRule{
	{"register_python", registerPythonOption},
	{"initialize_conda", initializeCondaOption},
	{"clear_package_cache", clearPackageCacheOption},
	{"enable_shortcuts", enableShortcutsOption},
	{"pre_install_script", func(pi *info.ProductInfo) ([]InstallOption, error) {
		return scriptOption("pre", pi.PreInstall, pi.PreInstallDesc)
	}},
	{"post_install_script", func(pi *info.ProductInfo) ([]InstallOption, error) {
		return scriptOption("post", pi.PostInstall, pi.PostInstallDesc)
	}},
}

// BuildInstallOptions evaluates the rule table against the product metadata.
// The result order is deterministic regardless of metadata layout.
func BuildInstallOptions(pi *info.ProductInfo) ([]InstallOption, error) {
	opts := []InstallOption{}
	for _, rule := range rules {
		built, err := rule.build(pi)
		if err != nil {
			return nil, fmt.Errorf("option %s: %w", rule.name, err)
		}
		opts = append(opts, built...)
	}
	return opts, nil
}

// bundledPythonVersion scans the staged dists for the bundled Python and
// returns its "major.minor" version. Dist ids follow the
// python-<version>-<build> format.
func bundledPythonVersion(pi *info.ProductInfo) (string, bool) {
	for _, dist := range pi.Dists {
		if !strings.HasPrefix(dist, "python-") {
			continue
		}
		components := strings.Split(dist, "-")
		if len(components) < 2 {
			continue
		}
		segments := strings.Split(components[1], ".")
		if len(segments) < 2 {
			continue
		}
		return strings.Join(segments[:len(segments)-1], "."), true
	}
	return "", false
}

func registerPythonOption(pi *info.ProductInfo) ([]InstallOption, error) {
	pythonVersion, hasPython := bundledPythonVersion(pi)
	if !hasPython || !pi.RegisterPythonEnabled() {
		return nil, nil
	}
	return []InstallOption{{
		Name:  "register_python",
		Title: fmt.Sprintf("Register %s as my default Python %s.", pi.Name, pythonVersion),
		Description: fmt.Sprintf("Allows other programs, such as VSCode, PyCharm, etc. to automatically "+
			"detect %s as the primary Python %s on the system.", pi.Name, pythonVersion),
		Default: pi.RegisterPythonDefault,
	}}, nil
}

func initializeCondaOption(pi *info.ProductInfo) ([]InstallOption, error) {
	mode := pi.CondaInit()
	if !mode.Enabled() {
		return nil, nil
	}

	var description string
	if mode == info.CondaInitCondabin {
		description = "Adds condabin, which only contains the 'conda' executables, to PATH. " +
			"Does not require special shortcuts but activation needs to be performed manually."
	} else {
		description = "NOT recommended. This can lead to conflicts with other applications. " +
			"Instead, use the Command Prompt and Powershell menus added to the Windows Start Menu."
	}
	return []InstallOption{{
		Name:        "initialize_conda",
		Title:       "Add installation to my PATH environment variable",
		Description: description,
		Default:     pi.InitializeByDefault,
	}}, nil
}

// Presented to the user as the negation of keep_pkgs.
func clearPackageCacheOption(pi *info.ProductInfo) ([]InstallOption, error) {
	return []InstallOption{{
		Name:        "clear_package_cache",
		Title:       "Clear the package cache upon completion",
		Description: "Recommended. Recovers some disk space without harming functionality.",
		Default:     !pi.KeepPkgs,
	}}, nil
}

func enableShortcutsOption(pi *info.ProductInfo) ([]InstallOption, error) {
	if !pi.EnableShortcuts {
		return nil, nil
	}
	return []InstallOption{{
		Name:        "enable_shortcuts",
		Title:       "Create shortcuts",
		Description: "Create shortcuts (supported packages only).",
		Default:     false,
	}}, nil
}

// scriptOption validates a pre/post-install script reference and surfaces a
// UI toggle when a description is present. A script without a description is
// still used by the installer, just not shown as an option.
func scriptOption(scriptType, script, description string) ([]InstallOption, error) {
	if description != "" && script == "" {
		return nil, fmt.Errorf("%w: %s_install_desc was set, but %s_install was not",
			msierrors.ErrValidation, scriptType, scriptType)
	}

	if script != "" && !isBatFile(script) {
		return nil, fmt.Errorf("%w: specified %s-install script %q must be an existing '.bat' file",
			msierrors.ErrValidation, scriptType, script)
	}

	if description == "" {
		return nil, nil
	}
	return []InstallOption{{
		Name:        scriptType + "_install_script",
		Title:       strings.ToUpper(scriptType[:1]) + scriptType[1:] + "-install script",
		Description: description,
		Default:     false,
	}}, nil
}

// isBatFile reports whether path names an existing regular file with a .bat
// extension, case-insensitive.
func isBatFile(path string) bool {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	return strings.EqualFold(filepath.Ext(path), ".bat")
}
