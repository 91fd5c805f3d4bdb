// Package archive creates and extracts the gzip-compressed tar payloads
// consumed by the installer scripts.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	msierrors "github.com/provide-io/msikit/pkg/msi/errors"
)

// CreateTarGz creates dstDir/archiveName containing srcDir as a single
// top-level entry named after srcDir's own base name.
//
// Both srcDir and dstDir must be existing directories. Compression is
// gzip.BestSpeed: the archive is consumed once at install time, so a low
// ratio beats build-time cost.
func CreateTarGz(srcDir, dstDir, archiveName string) (string, error) {
	for _, dir := range []string{srcDir, dstDir} {
		fi, err := os.Stat(dir)
		if err != nil || !fi.IsDir() {
			return "", fmt.Errorf("%w: %s", msierrors.ErrNotADirectory, dir)
		}
	}

	archivePath := filepath.Join(dstDir, archiveName)
	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("creating archive file: %w", err)
	}

	gw, err := gzip.NewWriterLevel(out, gzip.BestSpeed)
	if err != nil {
		out.Close()
		return "", fmt.Errorf("creating gzip writer: %w", err)
	}
	tw := tar.NewWriter(gw)

	err = addTree(tw, srcDir, filepath.Base(srcDir))

	// Close in reverse order so the gzip trailer is flushed to disk.
	if cerr := tw.Close(); err == nil {
		err = cerr
	}
	if cerr := gw.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(archivePath)
		return "", fmt.Errorf("archiving %s: %w", srcDir, err)
	}

	return archivePath, nil
}

// ConvertIntoArchive creates dstDir/archiveName from srcDir and removes
// srcDir after successful creation, leaving only the archive behind.
func ConvertIntoArchive(srcDir, dstDir, archiveName string) (string, error) {
	archivePath, err := CreateTarGz(srcDir, dstDir, archiveName)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(archivePath); err != nil {
		return "", fmt.Errorf("%w: failed to create archive %s", msierrors.ErrBuild, archivePath)
	}

	if err := os.RemoveAll(srcDir); err != nil {
		return "", fmt.Errorf("removing archived directory %s: %w", srcDir, err)
	}
	return archivePath, nil
}

// addTree writes the directory tree rooted at srcDir under the archive entry
// name base, preserving file modes.
func addTree(tw *tar.Writer, srcDir, base string) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		name := base
		if rel != "." {
			name = base + "/" + filepath.ToSlash(rel)
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(fi, "")
		if err != nil {
			return err
		}
		header.Name = name
		if d.IsDir() {
			header.Name += "/"
		}

		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("writing tar header for %s: %w", name, err)
		}
		if d.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("writing tar data for %s: %w", name, err)
		}
		return nil
	})
}

// ExtractTarGz unpacks a gzip-compressed tar archive into dstDir. Entries
// escaping dstDir are rejected.
func ExtractTarGz(archivePath, dstDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar header: %w", err)
		}

		target := filepath.Join(dstDir, filepath.FromSlash(header.Name))
		if !strings.HasPrefix(target, filepath.Clean(dstDir)+string(os.PathSeparator)) {
			return fmt.Errorf("tar entry %q escapes destination", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, fs.FileMode(header.Mode)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fs.FileMode(header.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("extracting %s: %w", header.Name, err)
			}
			if err := out.Close(); err != nil {
				return err
			}
		default:
			// Symlinks and special files never appear in payloads.
			return fmt.Errorf("unsupported tar entry type %d for %q", header.Typeflag, header.Name)
		}
	}
}
