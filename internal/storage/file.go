package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSink writes objects to the local filesystem. The key is the file path.
type FileSink struct {
	perm os.FileMode
}

// NewFileSink creates a sink writing files with mode 0644.
func NewFileSink() *FileSink {
	return &FileSink{perm: 0o644}
}

// Put writes r to a temporary file next to key and renames it into place
// once fully written, so key is either the complete new file or untouched.
// Cancellation is only checked before writing starts.
func (s *FileSink) Put(ctx context.Context, key string, r io.Reader, size int64) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, fmt.Errorf("%w: %s: %w", ErrWriteFailed, key, err)
	}

	dir := filepath.Dir(key)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(key)+".*.tmp")
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	tmpPath := tmp.Name()

	written, err := s.write(tmp, r)
	if err == nil && size >= 0 && written != size {
		err = fmt.Errorf("wrote %d bytes, expected %d", written, size)
	}
	if err == nil {
		err = os.Rename(tmpPath, key)
	}
	if err != nil {
		os.Remove(tmpPath)
		return ObjectInfo{}, fmt.Errorf("%w: %s: %w", ErrWriteFailed, key, err)
	}

	return ObjectInfo{Location: key, Size: written}, nil
}

// write copies r into f and closes it.
func (s *FileSink) write(f *os.File, r io.Reader) (int64, error) {
	n, err := io.Copy(f, r)
	if err == nil {
		err = f.Chmod(s.perm)
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}
