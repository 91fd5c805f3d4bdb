package payload

import (
	"fmt"
	"os"
	"path/filepath"

	msierrors "github.com/provide-io/msikit/pkg/msi/errors"
)

// ExternalPackagePath is the directory the installer-builder treats as the
// externally managed package content.
const ExternalPackagePath = "external"

// Layout is the fixed payload directory skeleton:
//
//	root/
//	└── external/
//	    └── base/
//	        └── pkgs/
//
// Created once per build and never mutated afterwards.
type Layout struct {
	Root     string
	External string
	Base     string
	Pkgs     string
}

// CreateLayout creates the payload skeleton under root. The external
// directory may pre-exist; base and pkgs must be fresh — hitting an existing
// one means a reused or dirty root, which is not recoverable.
//
// The directory name "base" is load-bearing: the rendered post-install
// script references it by this literal name.
func CreateLayout(root string) (*Layout, error) {
	external := filepath.Join(root, ExternalPackagePath)
	if err := os.MkdirAll(external, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", external, err)
	}

	base := filepath.Join(external, "base")
	if err := makeFreshDir(base); err != nil {
		return nil, err
	}

	pkgs := filepath.Join(base, "pkgs")
	if err := makeFreshDir(pkgs); err != nil {
		return nil, err
	}

	return &Layout{Root: root, External: external, Base: base, Pkgs: pkgs}, nil
}

func makeFreshDir(path string) error {
	if err := os.Mkdir(path, 0o755); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", msierrors.ErrAlreadyExists, path)
		}
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}
