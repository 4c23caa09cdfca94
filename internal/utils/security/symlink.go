package security

import (
	"fmt"
	"os"
	"path/filepath"
)

// SymlinkPolicy defines how to handle symlinks when reading files the tool
// did not create itself (config, source index).
type SymlinkPolicy int

const (
	// RejectSymlinks - reject any symlink and return an error
	RejectSymlinks SymlinkPolicy = iota
	// ResolveSymlinks - resolve symlinks and read the target path
	ResolveSymlinks
)

// SafeReadFile reads a file after applying the symlink policy to path.
func SafeReadFile(path string, policy SymlinkPolicy) ([]byte, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.Mode()&os.ModeSymlink == 0 {
		return os.ReadFile(path)
	}

	switch policy {
	case ResolveSymlinks:
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil, fmt.Errorf("resolving symlink %s: %w", path, err)
		}
		return os.ReadFile(resolved)
	default:
		return nil, fmt.Errorf("symlinks are not allowed: %s", path)
	}
}
