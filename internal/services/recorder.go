package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"support-desk/internal/status"
)

// FileRecorder stands in for a microphone on hosts without one: the
// "device" is an audio file that is held open while recording and read
// back on Stop.
type FileRecorder struct {
	Path string
}

func (r FileRecorder) Start(ctx context.Context) (Recording, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(r.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %w", status.ErrMicrophoneDenied, err)
		}
		return nil, err
	}
	return &fileRecording{f: f}, nil
}

type fileRecording struct {
	mu sync.Mutex
	f  *os.File
}

func (r *fileRecording) Stop() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil, status.ErrNotRecording
	}
	defer func() {
		r.f.Close()
		r.f = nil
	}()
	return io.ReadAll(r.f)
}

func (r *fileRecording) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f != nil {
		r.f.Close()
		r.f = nil
	}
}
