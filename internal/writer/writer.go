// Package writer persists verified payloads. It is the last line of
// defense against shipping a corrupted image under the expected filename:
// an unverified or rejected payload is never written, and the destination
// path never shows a partial file.
package writer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/virtstack/cloud-image-fetcher/internal/utils/logger"
	"github.com/virtstack/cloud-image-fetcher/internal/verify"
)

// InvariantViolationError reports an attempt to persist a payload that has
// not passed verification. It indicates a caller bug, not a recoverable
// runtime condition.
type InvariantViolationError struct {
	State verify.State
	Dest  string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("refusing to write %s payload to %s", e.State, e.Dest)
}

// Write lands the payload at dest atomically: bytes go to a temp file in
// the destination directory, then rename. On any failure the temp file is
// removed and dest is left untouched.
func Write(payload *verify.Payload, dest string) error {
	if payload.State() != verify.Verified {
		return &InvariantViolationError{State: payload.State(), Dest: dest}
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating destination directory %s: %w", dir, err)
	}

	// Temp file in the same directory so the rename stays on one filesystem.
	tmp := filepath.Join(dir, "."+filepath.Base(dest)+"."+uuid.NewString()+".partial")
	if err := os.WriteFile(tmp, payload.Bytes(), 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("moving %s -> %s: %w", tmp, dest, err)
	}

	logger.Logger().Debugf("wrote %d bytes to %s", len(payload.Bytes()), dest)
	return nil
}
