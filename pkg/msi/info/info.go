// Package info defines the product metadata contract for MSI payload builds.
//
// The JSON keys mirror the metadata produced by the distribution tooling and
// are a fixed contract: renaming a key here breaks every caller that emits
// product-info files.
package info

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	msierrors "github.com/provide-io/msikit/pkg/msi/errors"
)

// CondaInitMode controls the PATH-initialization install option.
//
// The upstream metadata is untyped and carries either a string mode or a
// boolean toggle, so this type accepts both on decode. An empty mode disables
// the option.
type CondaInitMode string

const (
	CondaInitOff      CondaInitMode = ""
	CondaInitClassic  CondaInitMode = "classic"
	CondaInitCondabin CondaInitMode = "condabin"
)

// UnmarshalJSON accepts both JSON strings and booleans.
func (m *CondaInitMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = CondaInitMode(s)
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*m = CondaInitClassic
		} else {
			*m = CondaInitOff
		}
		return nil
	}

	return fmt.Errorf("initialize_conda must be a string or a boolean, got %s", strings.TrimSpace(string(data)))
}

// Enabled reports whether PATH initialization is requested at all.
func (m CondaInitMode) Enabled() bool {
	return m != CondaInitOff
}

// ProductInfo is the typed product metadata for one installer build.
//
// Underscore-prefixed keys are filled in by the driving pipeline rather than
// the end user, matching the upstream metadata convention.
type ProductInfo struct {
	Name                    string         `json:"name"`
	Version                 string         `json:"version"`
	ReverseDomainIdentifier string         `json:"reverse_domain_identifier,omitempty"`
	Company                 string         `json:"company,omitempty"`
	LicenseFile             string         `json:"license_file,omitempty"`
	RegisterPython          *bool          `json:"register_python,omitempty"`
	RegisterPythonDefault   bool           `json:"register_python_default,omitempty"`
	InitializeConda         *CondaInitMode `json:"initialize_conda,omitempty"`
	InitializeByDefault     bool           `json:"initialize_by_default,omitempty"`
	KeepPkgs                bool           `json:"keep_pkgs,omitempty"`
	EnableShortcuts         bool           `json:"_enable_shortcuts,omitempty"`
	PreInstall              string         `json:"pre_install,omitempty"`
	PreInstallDesc          string         `json:"pre_install_desc,omitempty"`
	PostInstall             string         `json:"post_install,omitempty"`
	PostInstallDesc         string         `json:"post_install_desc,omitempty"`
	ExtraFiles              []string       `json:"extra_files,omitempty"`
	IconImage               string         `json:"icon_image,omitempty"`
	StampExeResources       bool           `json:"stamp_exe_resources,omitempty"`

	Dists       []string `json:"_dists,omitempty"`
	DownloadDir string   `json:"_download_dir,omitempty"`
	CondaExe    string   `json:"_conda_exe,omitempty"`
	Outpath     string   `json:"_outpath,omitempty"`
	Debug       bool     `json:"_debug,omitempty"`
}

// Load reads and decodes a product-info JSON file, applies defaults and
// validates eagerly so malformed metadata fails at the boundary instead of
// halfway through a build.
func Load(path string) (*ProductInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: product info %s: %v", msierrors.ErrNotFound, path, err)
	}

	var pi ProductInfo
	if err := json.Unmarshal(data, &pi); err != nil {
		return nil, fmt.Errorf("%w: parsing product info %s: %v", msierrors.ErrValidation, path, err)
	}

	pi.ApplyDefaults()
	if err := pi.Validate(); err != nil {
		return nil, err
	}
	return &pi, nil
}

// ApplyDefaults fills in the documented defaults for absent optional fields.
func (pi *ProductInfo) ApplyDefaults() {
	if pi.RegisterPython == nil {
		v := true
		pi.RegisterPython = &v
	}
	if pi.InitializeConda == nil {
		m := CondaInitClassic
		pi.InitializeConda = &m
	}
}

// Validate performs the eager boundary checks. Per-consumer checks that need
// filesystem context (script files, dist staging) stay with their consumers.
func (pi *ProductInfo) Validate() error {
	if pi.Name == "" {
		return fmt.Errorf("%w: name is empty", msierrors.ErrValidation)
	}
	if pi.Version == "" {
		return fmt.Errorf("%w: version is empty", msierrors.ErrValidation)
	}
	if pi.ReverseDomainIdentifier != "" && !strings.Contains(pi.ReverseDomainIdentifier, ".") {
		return fmt.Errorf("%w: reverse_domain_identifier %q contains no dots",
			msierrors.ErrValidation, pi.ReverseDomainIdentifier)
	}
	if pi.PreInstallDesc != "" && pi.PreInstall == "" {
		return fmt.Errorf("%w: pre_install_desc was set, but pre_install was not", msierrors.ErrValidation)
	}
	if pi.PostInstallDesc != "" && pi.PostInstall == "" {
		return fmt.Errorf("%w: post_install_desc was set, but post_install was not", msierrors.ErrValidation)
	}
	return nil
}

// RegisterPythonEnabled reports the register_python flag with its default.
func (pi *ProductInfo) RegisterPythonEnabled() bool {
	return pi.RegisterPython == nil || *pi.RegisterPython
}

// CondaInit reports the initialize_conda mode with its default.
func (pi *ProductInfo) CondaInit() CondaInitMode {
	if pi.InitializeConda == nil {
		return CondaInitClassic
	}
	return *pi.InitializeConda
}
