package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// FileProvider loads secrets from individual files, in the style of
// mounted container secrets.
type FileProvider struct{}

// NewFileProvider creates a new file-based secret provider.
func NewFileProvider() *FileProvider {
	return &FileProvider{}
}

// GetSecret reads the file at path. The file must be a regular file with
// 0600 or 0400 permissions.
func (p *FileProvider) GetSecret(_ context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to stat secret file: %w", err)
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret path is not a regular file: %s", path)
	}

	mode := info.Mode().Perm()
	if mode != 0o600 && mode != 0o400 {
		return "", fmt.Errorf("insecure permissions on %s: %o (expected 0600 or 0400)", path, mode)
	}

	// #nosec G304 - path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

// Provider returns the provider name.
func (p *FileProvider) Provider() string {
	return "file"
}
