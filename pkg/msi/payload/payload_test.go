package payload

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/provide-io/msikit/pkg/msi/archive"
	msierrors "github.com/provide-io/msikit/pkg/msi/errors"
	"github.com/provide-io/msikit/pkg/msi/info"
)

// testInfo builds minimal product metadata with one staged dist and a fake
// runtime executable, both materialized under a temp directory.
func testInfo(t *testing.T) *info.ProductInfo {
	t.Helper()
	dir := t.TempDir()

	dist := filepath.Join(dir, "foo-1.0-0.tar.bz2")
	if err := os.WriteFile(dist, []byte("dist bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	condaExe := filepath.Join(dir, "conda.exe")
	if err := os.WriteFile(condaExe, []byte("MZ fake executable"), 0o755); err != nil {
		t.Fatal(err)
	}

	pi := &info.ProductInfo{
		Name:        "App",
		Version:     "1.2.3",
		Dists:       []string{"foo-1.0-0"},
		DownloadDir: dir,
		CondaExe:    condaExe,
	}
	pi.ApplyDefaults()
	return pi
}

func TestDistFilename(t *testing.T) {
	tests := []struct {
		name     string
		dist     string
		expected string
	}{
		{"bare id gets tar.bz2", "foo-1.0-0", "foo-1.0-0.tar.bz2"},
		{"tar.bz2 kept", "foo-1.0-0.tar.bz2", "foo-1.0-0.tar.bz2"},
		{"conda kept", "foo-1.0-0.conda", "foo-1.0-0.conda"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DistFilename(tt.dist); got != tt.expected {
				t.Errorf("DistFilename(%q) = %q, want %q", tt.dist, got, tt.expected)
			}
		})
	}
}

func TestCreateLayout(t *testing.T) {
	root := t.TempDir()
	layout, err := CreateLayout(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if layout.External != filepath.Join(root, "external") {
		t.Errorf("external = %q", layout.External)
	}
	if layout.Base != filepath.Join(layout.External, "base") {
		t.Errorf("base = %q", layout.Base)
	}
	if layout.Pkgs != filepath.Join(layout.Base, "pkgs") {
		t.Errorf("pkgs = %q", layout.Pkgs)
	}
	for _, dir := range []string{layout.External, layout.Base, layout.Pkgs} {
		fi, err := os.Stat(dir)
		if err != nil || !fi.IsDir() {
			t.Errorf("%s is not a directory: %v", dir, err)
		}
	}
}

func TestCreateLayout_DirtyRoot(t *testing.T) {
	root := t.TempDir()
	if _, err := CreateLayout(root); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateLayout(root); !errors.Is(err, msierrors.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists on reused root, got %v", err)
	}
}

func TestPrepare_Archive(t *testing.T) {
	p := New(testInfo(t), nil)
	t.Cleanup(func() { p.Remove() })

	layout, err := p.Prepare(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Base is gone, replaced by the archive next to the runtime executable.
	if _, err := os.Stat(layout.Base); !os.IsNotExist(err) {
		t.Error("base directory should be removed after archiving")
	}
	archivePath := filepath.Join(layout.External, DefaultArchiveName)
	if _, err := os.Stat(archivePath); err != nil {
		t.Fatalf("archive missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(layout.External, DefaultCondaExeName)); err != nil {
		t.Errorf("runtime executable missing: %v", err)
	}

	// Rendered scripts live in the root with CRLF endings.
	for _, script := range []string{"run_installation.bat", "pre_uninstall.bat"} {
		data, err := os.ReadFile(filepath.Join(layout.Root, script))
		if err != nil {
			t.Fatalf("reading %s: %v", script, err)
		}
		text := string(data)
		if !strings.Contains(text, "\r\n") {
			t.Errorf("%s is not CRLF-terminated", script)
		}
		if strings.Contains(text, "{{") {
			t.Errorf("%s has unrendered template markers", script)
		}
	}

	// The manifest records the normalized identity.
	data, err := os.ReadFile(filepath.Join(layout.Root, "pyproject.toml"))
	if err != nil {
		t.Fatalf("reading pyproject.toml: %v", err)
	}
	if !strings.Contains(string(data), `version = "1.2.3"`) {
		t.Errorf("pyproject.toml missing version:\n%s", data)
	}

	// The archive round-trips with the dist under base/pkgs.
	out := t.TempDir()
	if err := archive.ExtractTarGz(archivePath, out); err != nil {
		t.Fatalf("extracting archive: %v", err)
	}
	extracted := filepath.Join(out, "base", "pkgs", "foo-1.0-0.tar.bz2")
	content, err := os.ReadFile(extracted)
	if err != nil {
		t.Fatalf("dist missing from archive: %v", err)
	}
	if string(content) != "dist bytes" {
		t.Errorf("dist content = %q", content)
	}
}

func TestPrepare_KeepsBaseWithoutArchive(t *testing.T) {
	p := New(testInfo(t), nil)
	t.Cleanup(func() { p.Remove() })

	layout, err := p.Prepare(false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(layout.Pkgs); err != nil {
		t.Errorf("pkgs should survive without archiving: %v", err)
	}
	if _, err := os.Stat(filepath.Join(layout.External, DefaultArchiveName)); !os.IsNotExist(err) {
		t.Error("no archive should be created")
	}
}

func TestPrepare_MissingCondaExe(t *testing.T) {
	pi := testInfo(t)
	pi.CondaExe = ""
	p := New(pi, nil)
	t.Cleanup(func() { p.Remove() })

	if _, err := p.Prepare(true); !errors.Is(err, msierrors.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPrepare_MissingDist(t *testing.T) {
	pi := testInfo(t)
	pi.Dists = append(pi.Dists, "absent-2.0-0")
	p := New(pi, nil)
	t.Cleanup(func() { p.Remove() })

	if _, err := p.Prepare(true); !errors.Is(err, msierrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStageExtraFiles(t *testing.T) {
	pi := testInfo(t)
	extra := filepath.Join(t.TempDir(), "extra.dat")
	if err := os.WriteFile(extra, []byte("extra"), 0o644); err != nil {
		t.Fatal(err)
	}
	pi.ExtraFiles = []string{extra}

	p := New(pi, nil)
	t.Cleanup(func() { p.Remove() })

	layout, err := p.Prepare(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(layout.External, "extra.dat"))
	if err != nil {
		t.Fatalf("extra file not staged: %v", err)
	}
	if string(data) != "extra" {
		t.Errorf("extra file content = %q", data)
	}
}
