package build

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	msierrors "github.com/provide-io/msikit/pkg/msi/errors"
	"github.com/provide-io/msikit/pkg/msi/info"
)

func TestInstaller_RequiresWindows(t *testing.T) {
	pi := &info.ProductInfo{Name: "App", Version: "1.0"}
	for _, goos := range []string{"linux", "darwin"} {
		t.Run(goos, func(t *testing.T) {
			err := installer(hclog.NewNullLogger(), pi, false, goos)
			if !errors.Is(err, msierrors.ErrPlatform) {
				t.Fatalf("expected ErrPlatform, got %v", err)
			}
		})
	}
}

func TestLocateArtifact(t *testing.T) {
	dist := t.TempDir()
	path := filepath.Join(dist, "App-1.0.msi")
	if err := os.WriteFile(path, []byte("msi"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := locateArtifact(dist)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != path {
		t.Errorf("artifact = %q, want %q", got, path)
	}
}

func TestLocateArtifact_WrongCount(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		if _, err := locateArtifact(t.TempDir()); !errors.Is(err, msierrors.ErrBuild) {
			t.Fatalf("expected ErrBuild, got %v", err)
		}
	})

	t.Run("multiple", func(t *testing.T) {
		dist := t.TempDir()
		for _, name := range []string{"a.msi", "b.msi"} {
			if err := os.WriteFile(filepath.Join(dist, name), []byte("msi"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := locateArtifact(dist); !errors.Is(err, msierrors.ErrBuild) {
			t.Fatalf("expected ErrBuild, got %v", err)
		}
	})
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.msi")
	dst := filepath.Join(dir, "dst.msi")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := moveFile(src, dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" {
		t.Errorf("destination = %q, want %q", data, "new")
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source should be gone after move")
	}
}

func TestFindBriefcase_Override(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "briefcase")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MSIKIT_BRIEFCASE_EXE", exe)

	got, err := findBriefcase()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != exe {
		t.Errorf("tool = %q, want %q", got, exe)
	}
}

func TestFindBriefcase_OverrideMissing(t *testing.T) {
	t.Setenv("MSIKIT_BRIEFCASE_EXE", filepath.Join(t.TempDir(), "nope"))
	if _, err := findBriefcase(); !errors.Is(err, msierrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
