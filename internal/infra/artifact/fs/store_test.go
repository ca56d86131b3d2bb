package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"efdcrun/internal/artifact/core"
)

func TestStoreRejectsBadKeys(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, key := range []string{"", "  ", "/etc/passwd", "../escape", "runs/../../x", "runs/a/efdc.inp.meta"} {
		_, err := store.Put(context.Background(), key, strings.NewReader("x"), core.PutOptions{})
		if !errors.Is(err, core.ErrInvalidKey) {
			t.Errorf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestStoreWritesSidecar(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	info, err := store.Put(context.Background(), "runs/r1/qbal.out", strings.NewReader("hello"), core.PutOptions{ContentType: "text/plain"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	// sha256("hello")
	if info.ETag != "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824" {
		t.Fatalf("etag = %s", info.ETag)
	}
	if _, err := os.Stat(filepath.Join(root, "runs", "r1", "qbal.out.meta")); err != nil {
		t.Fatalf("sidecar missing: %v", err)
	}
	tmps, _ := filepath.Glob(filepath.Join(root, "runs", "r1", ".tmp-*"))
	if len(tmps) != 0 {
		t.Fatalf("temporary files left behind: %v", tmps)
	}
}

func TestStoreCorruptSidecar(t *testing.T) {
	root := t.TempDir()
	store, _ := New(root)
	if _, err := store.Put(context.Background(), "k", strings.NewReader("v"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "k.meta"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Head(context.Background(), "k"); err == nil || errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if _, err := store.List(context.Background(), ""); err == nil {
		t.Fatalf("expected list to surface the corrupt sidecar")
	}
}
