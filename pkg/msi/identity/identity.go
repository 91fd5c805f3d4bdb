// Package identity derives the canonical name/version pair and the
// reverse-domain bundle identity that the installer-builder requires.
package identity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-hclog"
	msierrors "github.com/provide-io/msikit/pkg/msi/errors"
	"github.com/provide-io/msikit/pkg/msi/info"
)

const (
	// DefaultVersion is substituted when the version string contains no
	// parseable version number. Deliberately low, so that a later valid
	// version is treated as an upgrade.
	DefaultVersion = "0.0.1"

	// DefaultReverseDomainID is the bundle prefix used when the metadata
	// carries no reverse_domain_identifier.
	DefaultReverseDomainID = "io.continuum"
)

// versionPattern is the canonical version form the installer-builder accepts:
// optional epoch, dotted numerics, optional a/b/rc pre-release, optional
// .post and .dev suffixes.
var versionPattern = regexp.MustCompile(`(?i)(\d+!)?\d+(\.\d+)*((a|b|rc)\d+)?(\.post\d+)?(\.dev\d+)?`)

// appNamePattern matches an already-valid package-name token.
var appNamePattern = regexp.MustCompile(`(?i)^([A-Z0-9]|[A-Z0-9][A-Z0-9._-]*[A-Z0-9])$`)

// nonAlphanumRun matches every run of characters that cannot appear in a
// package-name token.
var nonAlphanumRun = regexp.MustCompile(`[^a-z0-9]+`)

// GetNameVersion extracts a canonical version from the product metadata.
//
// The installer-builder requires canonical version numbers, and the MSI
// machinery uses them to distinguish upgrades from downgrades and reinstalls.
// The last valid version inside the version string wins; any surrounding text
// is folded back into the display name. Hyphens are not allowed in canonical
// versions, so for compatibility with distribution version strings they are
// treated as dots.
func GetNameVersion(logger hclog.Logger, pi *info.ProductInfo) (string, string, error) {
	name := pi.Name
	if name == "" {
		return "", "", fmt.Errorf("%w: name is empty", msierrors.ErrValidation)
	}
	rawVersion := pi.Version
	if rawVersion == "" {
		return "", "", fmt.Errorf("%w: version is empty", msierrors.ErrValidation)
	}

	searchable := strings.ReplaceAll(strings.ToLower(rawVersion), "-", ".")
	matches := versionPattern.FindAllStringIndex(searchable, -1)
	if matches == nil {
		logger.Warn("⚠️ Version contains no valid version numbers, substituting default",
			"version", rawVersion, "default", DefaultVersion)
		return name + " " + rawVersion, DefaultVersion, nil
	}

	// Last match wins. The match indices are valid for the raw string too:
	// the lowercase/dot transform is byte-preserving for version strings.
	start, end := matches[len(matches)-1][0], matches[len(matches)-1][1]
	version := searchable[start:end]

	const stripChars = " .-_"
	before := strings.Trim(rawVersion[:start], stripChars)
	after := strings.Trim(rawVersion[end:], stripChars)

	parts := make([]string, 0, 3)
	for _, s := range []string{name, before, after} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), version, nil
}

// MakeAppName turns an arbitrary string with at least one alphanumeric
// character into a valid package-name token: lowercase alphanumeric segments
// joined by single hyphens.
func MakeAppName(raw, source string) (string, error) {
	appName := strings.Trim(nonAlphanumRun.ReplaceAllString(strings.ToLower(raw), "-"), "-")
	if appName == "" {
		return "", fmt.Errorf("%w: %s contains no alphanumeric characters", msierrors.ErrValidation, source)
	}
	return appName, nil
}

// GetBundleAppName splits the product identity into a bundle prefix and an
// app-name token.
//
// Installer machinery uses the reverse-domain identifier to detect an already
// installed product, so it must be unique between products and stable between
// versions of one product.
func GetBundleAppName(pi *info.ProductInfo, name string) (string, string, error) {
	if rdi := pi.ReverseDomainIdentifier; rdi != "" {
		idx := strings.LastIndex(rdi, ".")
		if idx < 0 {
			return "", "", fmt.Errorf("%w: reverse_domain_identifier %q contains no dots",
				msierrors.ErrValidation, rdi)
		}
		bundle, appName := rdi[:idx], rdi[idx+1:]

		// The last component must be a valid package-name token.
		if !appNamePattern.MatchString(appName) {
			sanitized, err := MakeAppName(appName,
				fmt.Sprintf("last component of reverse_domain_identifier %q", rdi))
			if err != nil {
				return "", "", err
			}
			appName = sanitized
		}
		return bundle, appName, nil
	}

	appName, err := MakeAppName(name, fmt.Sprintf("name %q", name))
	if err != nil {
		return "", "", err
	}
	return DefaultReverseDomainID, appName, nil
}
