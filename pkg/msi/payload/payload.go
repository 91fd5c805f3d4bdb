// Package payload prepares the self-contained payload directory the
// installer-builder consumes: directory skeleton, staged distribution
// packages, the bundled runtime executable, rendered install scripts, the
// configuration manifest and finally the compressed archive.
package payload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/msikit/internal/buildroot"
	"github.com/provide-io/msikit/pkg/msi/archive"
	"github.com/provide-io/msikit/pkg/msi/assets"
	msierrors "github.com/provide-io/msikit/pkg/msi/errors"
	"github.com/provide-io/msikit/pkg/msi/exeres"
	"github.com/provide-io/msikit/pkg/msi/info"
	"github.com/provide-io/msikit/pkg/msi/manifest"
	"github.com/provide-io/msikit/pkg/msi/templatefile"
)

const (
	// DefaultArchiveName is referenced literally by the rendered scripts.
	DefaultArchiveName = "payload.tar.gz"

	// DefaultCondaExeName is the staged name of the bundled runtime
	// executable, also referenced literally by the rendered scripts.
	DefaultCondaExeName = "_conda.exe"
)

// Payload is the mutable state of one payload build session. One Prepare
// call per instance; the root directory is owned exclusively by this build.
type Payload struct {
	Info              *info.ProductInfo
	Root              string
	ArchiveName       string
	CondaExeName      string
	RenderedTemplates []templatefile.TemplateFile

	logger hclog.Logger
}

// New creates a payload session for the given product metadata.
func New(pi *info.ProductInfo, logger hclog.Logger) *Payload {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Payload{
		Info:         pi,
		ArchiveName:  DefaultArchiveName,
		CondaExeName: DefaultCondaExeName,
		logger:       logger,
	}
}

// Prepare materializes the payload. With asArchive (the normal mode) the
// finished base directory is converted into the compressed archive, leaving
// only the archive behind.
func (p *Payload) Prepare(asArchive bool) (*Layout, error) {
	root, err := p.ensureRoot()
	if err != nil {
		return nil, err
	}
	p.logger.Debug("📁 Payload root ready", "root", root)

	layout, err := CreateLayout(root)
	if err != nil {
		return nil, err
	}

	if err := p.WritePyprojectTOML(layout); err != nil {
		return nil, err
	}

	if err := p.stageExtraFiles(layout); err != nil {
		return nil, err
	}
	if err := p.stageDists(layout); err != nil {
		return nil, err
	}
	if err := p.stageCondaExe(layout); err != nil {
		return nil, err
	}
	if err := p.stampCondaExe(layout); err != nil {
		return nil, err
	}

	if asArchive {
		archivePath, err := archive.ConvertIntoArchive(layout.Base, layout.External, p.ArchiveName)
		if err != nil {
			return nil, err
		}
		p.logger.Info("✅ Payload archived", "archive", archivePath)
	}

	return layout, nil
}

// Remove deletes the payload root recursively.
func (p *Payload) Remove() error {
	return buildroot.Remove(p.Root)
}

// RenderTemplates renders the install scripts into the payload root with
// CRLF line endings and records them on the instance.
func (p *Payload) RenderTemplates() ([]templatefile.TemplateFile, error) {
	root, err := p.ensureRoot()
	if err != nil {
		return nil, err
	}

	files := []templatefile.TemplateFile{
		{
			Name: "post_install_script",
			Src:  assets.PostInstallTemplate,
			Dst:  filepath.Join(root, "run_installation.bat"),
		},
		{
			Name: "pre_uninstall_script",
			Src:  assets.PreUninstallTemplate,
			Dst:  filepath.Join(root, "pre_uninstall.bat"),
		},
	}
	context := map[string]string{
		"archive_name":   p.ArchiveName,
		"conda_exe_name": p.CondaExeName,
	}
	if err := templatefile.RenderTemplateFiles(assets.FS, files, context, templatefile.CRLF); err != nil {
		return nil, err
	}

	p.RenderedTemplates = files
	return files, nil
}

// WritePyprojectTOML renders the templates and writes the installer-builder
// configuration into the payload root.
func (p *Payload) WritePyprojectTOML(layout *Layout) error {
	rendered, err := p.RenderTemplates()
	if err != nil {
		return err
	}

	config, err := manifest.Build(p.logger, p.Info, layout.External, layout.Root, rendered)
	if err != nil {
		return err
	}

	tomlPath := filepath.Join(layout.Root, "pyproject.toml")
	if err := config.WriteTOML(tomlPath); err != nil {
		return err
	}
	p.logger.Debug("📜 Created configuration manifest", "path", tomlPath)
	return nil
}

// DistFilename maps a distribution identifier to its package filename.
func DistFilename(dist string) string {
	if strings.HasSuffix(dist, ".conda") || strings.HasSuffix(dist, ".tar.bz2") {
		return dist
	}
	return dist + ".tar.bz2"
}

// stageDists copies each resolved distribution package from the download
// directory into pkgs, preserving filenames.
func (p *Payload) stageDists(layout *Layout) error {
	for _, dist := range p.Info.Dists {
		filename := DistFilename(dist)
		src := filepath.Join(p.Info.DownloadDir, filename)
		if err := copyFile(src, filepath.Join(layout.Pkgs, filename), 0o644); err != nil {
			return fmt.Errorf("staging dist %s: %w", dist, err)
		}
		p.logger.Debug("📦 Staged dist", "dist", filename)
	}
	return nil
}

// stageCondaExe copies the bundled runtime executable into external under
// its configured name.
func (p *Payload) stageCondaExe(layout *Layout) error {
	src := p.Info.CondaExe
	if src == "" {
		return fmt.Errorf("%w: _conda_exe is not set", msierrors.ErrValidation)
	}
	if err := copyFile(src, filepath.Join(layout.External, p.CondaExeName), 0o755); err != nil {
		return fmt.Errorf("staging runtime executable: %w", err)
	}
	p.logger.Debug("🚀 Staged runtime executable", "name", p.CondaExeName)
	return nil
}

// stageExtraFiles copies the configured extra files into external.
func (p *Payload) stageExtraFiles(layout *Layout) error {
	for _, extra := range p.Info.ExtraFiles {
		dst := filepath.Join(layout.External, filepath.Base(extra))
		if err := copyFile(extra, dst, 0o644); err != nil {
			return fmt.Errorf("staging extra file %s: %w", extra, err)
		}
	}
	return nil
}

// stampCondaExe optionally brands the staged runtime executable with version
// and icon resources.
func (p *Payload) stampCondaExe(layout *Layout) error {
	if !p.Info.StampExeResources {
		return nil
	}
	exePath := filepath.Join(layout.External, p.CondaExeName)
	if err := exeres.Stamp(p.logger, exePath, p.Info); err != nil {
		return fmt.Errorf("%w: stamping %s: %v", msierrors.ErrBuild, exePath, err)
	}
	return nil
}

func (p *Payload) ensureRoot() (string, error) {
	if p.Root != "" {
		return p.Root, nil
	}
	root, err := buildroot.Create()
	if err != nil {
		return "", err
	}
	p.Root = root
	return root, nil
}

// copyFile copies src to dst. The source must exist as a regular file.
func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: %s", msierrors.ErrNotFound, src)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
