package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const maxPathLength = 4096

// PathValidator checks database, index and log locations before they are
// opened or created.
type PathValidator struct {
	// AllowedBaseDirs restricts paths to these trees. Empty allows any.
	AllowedBaseDirs []string
}

// NewPathValidator confines paths to the XDG homes and the temp dir.
func NewPathValidator(appName string) *PathValidator {
	return &PathValidator{
		AllowedBaseDirs: []string{
			filepath.Join(xdg.DataHome, appName),
			filepath.Join(xdg.StateHome, appName),
			filepath.Join(xdg.ConfigHome, appName),
			filepath.Join(xdg.CacheHome, appName),
			os.TempDir(),
		},
	}
}

// NewPermissivePathValidator accepts paths anywhere.
func NewPermissivePathValidator() *PathValidator {
	return &PathValidator{}
}

// Clean validates path and returns it absolute and cleaned.
func (v *PathValidator) Clean(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if len(path) > maxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", maxPathLength)
	}
	for _, r := range path {
		if r == 0 || (r < 32 && r != '\t') {
			return "", fmt.Errorf("path contains control characters")
		}
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", fmt.Errorf("directory traversal not allowed")
		}
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot make path absolute: %w", err)
	}
	abs = filepath.Clean(abs)

	if err := v.within(abs); err != nil {
		return "", err
	}
	return abs, nil
}

func (v *PathValidator) within(path string) error {
	if len(v.AllowedBaseDirs) == 0 {
		return nil
	}
	for _, base := range v.AllowedBaseDirs {
		absBase, err := filepath.Abs(base)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absBase, path)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("path not within allowed directories: %v", v.AllowedBaseDirs)
}

// PrepareFile validates a file path and creates its parent directory.
func (v *PathValidator) PrepareFile(path string) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}
	if info, statErr := os.Stat(clean); statErr == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", clean)
	}
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	return clean, nil
}

// PrepareDir validates a directory path such as a search index location and
// creates its parent. The directory itself is left for its owner to create.
func (v *PathValidator) PrepareDir(path string) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}
	if info, statErr := os.Stat(clean); statErr == nil && !info.IsDir() {
		return "", fmt.Errorf("path exists but is not a directory: %s", clean)
	}
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	return clean, nil
}
