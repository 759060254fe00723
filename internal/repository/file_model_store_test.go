package repository

import (
	"context"
	"testing"
)

func TestFileModelStoreRoundTrip(t *testing.T) {
	store, err := NewFileModelStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileModelStore: %v", err)
	}
	ctx := context.Background()

	payload := []byte(`{"weights":[1,2,3]}`)
	if err := store.Save(ctx, "20260301T120000Z", payload); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, "20260301T120000Z")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Load = %s, want %s", got, payload)
	}
}

func TestFileModelStoreLatestPointer(t *testing.T) {
	store, err := NewFileModelStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileModelStore: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "v1", []byte("one")); err != nil {
		t.Fatalf("Save v1: %v", err)
	}
	if err := store.Save(ctx, "v2", []byte("two")); err != nil {
		t.Fatalf("Save v2: %v", err)
	}

	version, payload, err := store.LoadLatest(ctx)
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if version != "v2" || string(payload) != "two" {
		t.Errorf("LoadLatest = %q/%s, want v2/two", version, payload)
	}
}

func TestFileModelStoreEmptyDirectory(t *testing.T) {
	store, err := NewFileModelStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileModelStore: %v", err)
	}

	if _, _, err := store.LoadLatest(context.Background()); err == nil {
		t.Fatal("expected error when no model was saved")
	}
}

func TestFileModelStoreRejectsPathVersions(t *testing.T) {
	store, err := NewFileModelStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileModelStore: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "../escape", []byte("x")); err == nil {
		t.Error("expected error for a path-like version")
	}
	if err := store.Save(ctx, "", []byte("x")); err == nil {
		t.Error("expected error for an empty version")
	}
	if _, err := store.Load(ctx, "a/b"); err == nil {
		t.Error("expected error for a path-like version on load")
	}
}
