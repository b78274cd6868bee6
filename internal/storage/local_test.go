package storage

import (
	"bytes"
	"context"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error: %v", err)
	}

	ctx := context.Background()
	key := ScreenshotKey("2f1b4a9e-0000-0000-0000-000000000000", "png")
	data := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

	if err := store.Put(ctx, key, data); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Get() = %v, want %v", got, data)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	// Deleting a missing blob is a no-op
	if err := store.Delete(ctx, key); err != nil {
		t.Errorf("Delete() of missing blob should not error, got %v", err)
	}

	if _, err := store.Get(ctx, key); err == nil {
		t.Error("Get() after Delete() should error")
	}
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error: %v", err)
	}

	ctx := context.Background()
	for _, key := range []string{"../escape.png", "a/b.png"} {
		if err := store.Put(ctx, key, []byte("x")); err == nil {
			t.Errorf("Put(%q) should reject key outside the storage root", key)
		}
	}
}

func TestScreenshotKey(t *testing.T) {
	got := ScreenshotKey("abc", "webp")
	if got != "abc.webp" {
		t.Errorf("ScreenshotKey() = %q, want %q", got, "abc.webp")
	}
}
