// Package templatefile renders script templates into a payload directory.
package templatefile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	msierrors "github.com/provide-io/msikit/pkg/msi/errors"
)

// CRLF is the default line ending. The rendered scripts are Windows batch
// files, which require carriage-return + linefeed.
const CRLF = "\r\n"

// TemplateFile describes one template render. Src is a path inside the
// source filesystem, Dst a path on disk.
type TemplateFile struct {
	Name string
	Src  string
	Dst  string
}

// RenderTemplateFiles renders each template with the given context.
//
// Sources are read from fsys so the bundled templates (embed.FS) and
// on-disk overrides (os.DirFS) go through the same path. A context variable
// referenced by a template but absent from the map fails the render rather
// than expanding to nothing. A failure on one file leaves previously written
// files in place; nothing is rolled back.
func RenderTemplateFiles(fsys fs.FS, files []TemplateFile, context map[string]string, lineEnding string) error {
	if lineEnding == "" {
		lineEnding = CRLF
	}

	for _, f := range files {
		if _, err := fs.Stat(fsys, f.Src); err != nil {
			return fmt.Errorf("%w: template source %s", msierrors.ErrNotFound, f.Src)
		}

		src, err := fs.ReadFile(fsys, f.Src)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", f.Src, err)
		}

		tmpl, err := template.New(f.Name).Option("missingkey=error").Parse(string(src))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", f.Src, err)
		}

		var sb strings.Builder
		if err := tmpl.Execute(&sb, context); err != nil {
			return fmt.Errorf("rendering template %s: %w", f.Src, err)
		}

		if err := os.MkdirAll(filepath.Dir(f.Dst), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", f.Dst, err)
		}

		rendered := normalizeLineEndings(sb.String(), lineEnding)
		if err := os.WriteFile(f.Dst, []byte(rendered), 0o644); err != nil {
			return fmt.Errorf("writing rendered template %s: %w", f.Dst, err)
		}
	}

	return nil
}

// normalizeLineEndings rewrites every line break to the requested convention.
func normalizeLineEndings(s, lineEnding string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if lineEnding == "\n" {
		return s
	}
	return strings.ReplaceAll(s, "\n", lineEnding)
}
