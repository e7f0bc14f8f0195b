package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskStoreSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore returned error: %v", err)
	}

	url, err := store.Save(context.Background(), "../cover photo.png", strings.NewReader("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if !strings.HasPrefix(url, "/images/") || !strings.HasSuffix(url, "_cover_photo.png") {
		t.Fatalf("unexpected url %s", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/images/")))
	if err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestObjectNameUnique(t *testing.T) {
	a, b := objectName("a.jpg"), objectName("a.jpg")
	if a == b {
		t.Fatalf("expected unique names, got %s twice", a)
	}
}
