// Package media owns the lifecycle of transient decoded audio/video
// resources. A Handle is the moral equivalent of a browser object URL: an
// owned reference to a decoded blob that must be revoked exactly once.
package media

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
)

type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// Handle is an owned reference to a decoded media blob spilled to disk.
// Release revokes the resource; it is safe to call more than once but only
// the first call has any effect.
type Handle struct {
	ID   string
	Kind Kind

	resourcePath string
	released     atomic.Bool
}

// Acquire decodes a blob into an owned resource. The caller (or the Store
// the handle is installed into) is responsible for releasing it.
func Acquire(kind Kind, blob []byte) (*Handle, error) {
	file, err := os.CreateTemp("", "trainer-media-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create media resource: %w", err)
	}

	if _, err := file.Write(blob); err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, fmt.Errorf("failed to write media resource: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return nil, fmt.Errorf("failed to finalize media resource: %w", err)
	}

	return &Handle{
		ID:           uuid.NewString(),
		Kind:         kind,
		resourcePath: file.Name(),
	}, nil
}

// ResourceURL returns the location of the decoded resource, or an empty
// string once the handle has been released.
func (h *Handle) ResourceURL() string {
	if h == nil || h.released.Load() {
		return ""
	}
	return h.resourcePath
}

// Released reports whether the handle has been revoked.
func (h *Handle) Released() bool {
	return h == nil || h.released.Load()
}

// Release revokes the underlying resource. Exactly one call takes effect.
func (h *Handle) Release() {
	if h == nil {
		return
	}

	if h.released.CompareAndSwap(false, true) {
		os.Remove(h.resourcePath)
	}
}
