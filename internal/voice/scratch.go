package voice

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"personabot/internal/logging"
)

// Scratch is the directory holding audio clips. Every clip gets a unique
// name, so several sessions may share one directory.
type Scratch struct {
	dir string
}

// NewScratch prepares dir, falling back to the system temp directory when
// it cannot be created. An empty dir also means the temp directory.
func NewScratch(dir string) *Scratch {
	if dir == "" {
		return &Scratch{dir: os.TempDir()}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.VoiceWarn("scratch dir %s unavailable, using temp dir: %v", dir, err)
		return &Scratch{dir: os.TempDir()}
	}
	return &Scratch{dir: dir}
}

// Dir returns the scratch directory.
func (s *Scratch) Dir() string { return s.dir }

// NewClip returns a fresh clip path. The file is not created.
func (s *Scratch) NewClip(kind, ext string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s%s", kind, uuid.NewString(), ext))
}

// Remove deletes a clip. A clip that was never written is not an error.
func (s *Scratch) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.VoiceWarn("failed to remove clip %s: %v", path, err)
		return
	}
	logging.VoiceDebug("removed clip %s", path)
}

// fileSize returns the size of path, or -1 when it cannot be read.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return -1
	}
	return info.Size()
}
