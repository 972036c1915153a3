// Package security confines file access of the MCP tools to a working
// directory.
package security

import (
	"os"
	"path/filepath"
	"strings"

	pdferrors "github.com/xmher/PB-Products-sub000/internal/pdf/errors"
)

// PathValidator resolves tool-supplied paths against a working directory
// and refuses anything that escapes it, including through symlinks.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir. The directory must exist.
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, pdferrors.NewPipelineError(pdferrors.ErrorTypeSecurityRestriction, "working directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to resolve working directory", err).WithFile(dir)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "working directory is not accessible", err).WithFile(dir)
	}
	if !info.IsDir() {
		return nil, pdferrors.NewPipelineError(pdferrors.ErrorTypeIO, "working directory is not a directory").WithFile(dir)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	return &PathValidator{root: abs}, nil
}

// Root returns the absolute, symlink-free working directory
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve returns the absolute form of path. Relative paths are taken
// relative to the working directory. The path need not exist yet.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", pdferrors.NewPipelineError(pdferrors.ErrorTypeSecurityRestriction, "path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	clean := filepath.Clean(path)

	real, err := realPath(clean)
	if err != nil {
		return "", pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to resolve path", err).WithFile(path)
	}
	if !v.contains(real) {
		return "", pdferrors.NewPipelineErrorWithContext(pdferrors.ErrorTypeSecurityRestriction,
			"path is outside the working directory", v.root).WithFile(path)
	}
	return real, nil
}

// ResolveExisting is Resolve for inputs: the path must name a regular file.
func (v *PathValidator) ResolveExisting(path string) (string, error) {
	abs, err := v.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", pdferrors.WrapError(pdferrors.ErrorTypeIO, "input file not found", err).WithFile(abs)
	}
	if info.IsDir() {
		return "", pdferrors.NewPipelineError(pdferrors.ErrorTypeIO, "path is a directory").WithFile(abs)
	}
	return abs, nil
}

func (v *PathValidator) contains(path string) bool {
	if path == v.root {
		return true
	}
	rel, err := filepath.Rel(v.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// realPath evaluates symlinks in the longest existing prefix of path and
// appends the part that does not exist yet.
func realPath(path string) (string, error) {
	var rest []string
	cur := path
	for {
		if _, err := os.Lstat(cur); err == nil {
			resolved, err := filepath.EvalSymlinks(cur)
			if err != nil {
				return "", err
			}
			for i := len(rest) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, rest[i])
			}
			return resolved, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return path, nil
		}
		rest = append(rest, filepath.Base(cur))
		cur = parent
	}
}
