package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"igma-backend/internal/shared/storage/object"
)

func TestSaveWithKeyRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	n, err := store.SaveWithKey(ctx, "results/t/a/gen-0001.json", "application/json", strings.NewReader(`{"ok":true}`))
	if err != nil {
		t.Fatalf("SaveWithKey: %v", err)
	}
	if n != 11 {
		t.Fatalf("expected 11 bytes, got %d", n)
	}

	rc, err := store.Open(ctx, "results/t/a/gen-0001.json")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != `{"ok":true}` {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.SaveWithKey(context.Background(), "../escape.json", "", strings.NewReader("x")); !errors.Is(err, object.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := store.Open(context.Background(), "/etc/passwd"); !errors.Is(err, object.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey for absolute key, got %v", err)
	}
}
