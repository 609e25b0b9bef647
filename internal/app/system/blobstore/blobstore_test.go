package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestLocal_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	s := NewWithFs(afero.NewMemMapFs())
	s.now = func() time.Time { return time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) }

	ref, size, err := s.Put(ctx, "Quarterly Report.PDF", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if size != 5 {
		t.Errorf("size = %d, want 5", size)
	}
	if !strings.HasPrefix(ref, "2026/03/") || !strings.HasSuffix(ref, ".pdf") {
		t.Errorf("unexpected ref %q", ref)
	}

	rc, err := s.Open(ctx, ref)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "hello" {
		t.Errorf("content = %q", data)
	}

	if err := s.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Open(ctx, ref); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open after Delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, ref); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
}

func TestLocal_RejectsForeignRefs(t *testing.T) {
	ctx := context.Background()
	s := NewWithFs(afero.NewMemMapFs())
	for _, ref := range []string{"", "../etc/passwd", "2026/03/not-a-uuid.txt", "a/b/c/d"} {
		if _, err := s.Open(ctx, ref); !errors.Is(err, ErrBadRef) {
			t.Errorf("Open(%q) = %v, want ErrBadRef", ref, err)
		}
		if err := s.Delete(ctx, ref); !errors.Is(err, ErrBadRef) {
			t.Errorf("Delete(%q) = %v, want ErrBadRef", ref, err)
		}
	}
}

func TestSafeExt(t *testing.T) {
	tests := map[string]string{
		"a.pdf":          ".pdf",
		"A.TXT":          ".txt",
		"noext":          "",
		"weird.p$f":      "",
		`C:\x\photo.jpg`: ".jpg",
		"archive.tar.gz": ".gz",
	}
	for in, want := range tests {
		if got := safeExt(in); got != want {
			t.Errorf("safeExt(%q) = %q, want %q", in, got, want)
		}
	}
}
