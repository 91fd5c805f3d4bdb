// Package buildroot manages the temporary root directory a payload build
// works in. One build owns its root exclusively; nothing else touches it.
package buildroot

import (
	"fmt"
	"os"
)

// Create makes a fresh temporary root directory for one payload build.
func Create() (string, error) {
	root, err := os.MkdirTemp("", "msikit-payload-")
	if err != nil {
		return "", fmt.Errorf("failed to create payload root: %w", err)
	}
	return root, nil
}

// Remove deletes a payload root recursively. Removing a root that is already
// gone is not an error.
func Remove(root string) error {
	if root == "" {
		return nil
	}
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("failed to remove payload root %s: %w", root, err)
	}
	return nil
}
