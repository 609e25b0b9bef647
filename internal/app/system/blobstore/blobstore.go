// Package blobstore keeps attachment bytes behind opaque references.
// Callers store only the reference; the layout under the root is private.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ErrNotFound is returned when a reference does not resolve.
var ErrNotFound = errors.New("blob not found")

// ErrBadRef is returned for references this store did not issue.
var ErrBadRef = errors.New("malformed blob reference")

// Store writes and releases blobs.
type Store interface {
	Put(ctx context.Context, filename string, r io.Reader) (ref string, size int64, err error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

// Local is an afero-backed store. References look like
// "2026/10/<uuid>.pdf" and are relative to the filesystem root.
type Local struct {
	fs  afero.Fs
	now func() time.Time
}

// NewLocal roots a store at dir on the OS filesystem, creating dir if needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return NewWithFs(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

// NewWithFs uses fs as the store root. Tests pass afero.NewMemMapFs().
func NewWithFs(fs afero.Fs) *Local {
	return &Local{fs: fs, now: time.Now}
}

// Put copies r into a new blob and returns its reference and size.
// A partially written blob is removed on error.
func (l *Local) Put(ctx context.Context, filename string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	now := l.now().UTC()
	dir := fmt.Sprintf("%04d/%02d", now.Year(), int(now.Month()))
	ref := path.Join(dir, uuid.NewString()+safeExt(filename))

	if err := l.fs.MkdirAll(dir, 0o755); err != nil {
		return "", 0, err
	}
	f, err := l.fs.OpenFile(ref, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = l.fs.Remove(ref)
		return "", 0, err
	}
	return ref, n, nil
}

// Open returns a reader for ref.
func (l *Local) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := validRef(ref); err != nil {
		return nil, err
	}
	f, err := l.fs.Open(ref)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Delete releases ref. Deleting a missing blob is not an error.
func (l *Local) Delete(ctx context.Context, ref string) error {
	if err := validRef(ref); err != nil {
		return err
	}
	err := l.fs.Remove(ref)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// safeExt keeps a short alphanumeric extension from the client filename.
func safeExt(filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

func validRef(ref string) error {
	parts := strings.Split(ref, "/")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return ErrBadRef
	}
	name := strings.TrimSuffix(parts[2], path.Ext(parts[2]))
	if _, err := uuid.Parse(name); err != nil {
		return ErrBadRef
	}
	return nil
}
