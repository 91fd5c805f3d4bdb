// Package assets bundles the data files shipped inside every payload: the
// post-install and pre-uninstall batch-script templates and the placeholder
// license used when the product metadata names none.
package assets

import "embed"

// Templates and data files addressed by path, e.g. "briefcase/run_installation.bat".
//
//go:embed briefcase placeholder_license.txt
var FS embed.FS

const (
	PostInstallTemplate  = "briefcase/run_installation.bat"
	PreUninstallTemplate = "briefcase/pre_uninstall.bat"
	PlaceholderLicense   = "placeholder_license.txt"
)
