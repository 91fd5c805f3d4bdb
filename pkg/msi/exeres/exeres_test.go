package exeres

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/msikit/pkg/msi/info"
)

func TestFixedVersion(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"three parts padded", "24.1.2", "24.1.2.0"},
		{"four parts kept", "1.2.3.4", "1.2.3.4"},
		{"extra parts dropped", "1.2.3.4.5", "1.2.3.4"},
		{"single part", "7", "7.0.0.0"},
		{"prerelease suffix stripped", "1.0rc2", "1.0.0.0"},
		{"non-numeric tail stops parsing", "1.2.dev3", "1.2.0.0"},
		{"no leading digits", "unknown", "0.0.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fixedVersion(tt.input); got != tt.expected {
				t.Errorf("fixedVersion(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestBuildVersionInfo(t *testing.T) {
	pi := &info.ProductInfo{Name: "App", Version: "1.2.3", Company: "Example Corp"}
	vi, err := buildVersionInfo(pi)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vi == nil {
		t.Fatal("nil version info")
	}
}

func TestStamp_NotAnExecutable(t *testing.T) {
	// A garbage file yields a fresh resource set, but writing resources to a
	// non-PE file must fail without touching the original.
	path := filepath.Join(t.TempDir(), "not-an-exe")
	original := []byte("this is not a PE file")
	if err := os.WriteFile(path, original, 0o755); err != nil {
		t.Fatal(err)
	}

	pi := &info.ProductInfo{Name: "App", Version: "1.0"}
	if err := Stamp(hclog.NewNullLogger(), path, pi); err == nil {
		t.Fatal("expected error stamping a non-PE file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(original) {
		t.Error("original file was modified by a failed stamp")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind after failure")
	}
}

func TestStamp_MissingFile(t *testing.T) {
	pi := &info.ProductInfo{Name: "App", Version: "1.0"}
	err := Stamp(hclog.NewNullLogger(), filepath.Join(t.TempDir(), "nope.exe"), pi)
	if err == nil {
		t.Fatal("expected error for missing executable")
	}
}
