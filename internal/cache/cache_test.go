package cache

import (
	"path/filepath"
	"testing"
)

func TestPutGetDelete(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.Get("missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := store.Put("profile", []byte("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, ok, err := store.Get("profile")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(value) != "v1" {
		t.Errorf("got %q, want v1", value)
	}

	// Put replaces.
	if err := store.Put("profile", []byte("v2")); err != nil {
		t.Fatalf("put replace: %v", err)
	}
	value, _, _ = store.Get("profile")
	if string(value) != "v2" {
		t.Errorf("got %q, want v2", value)
	}

	if err := store.Delete("profile"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get("profile"); ok {
		t.Error("key survived delete")
	}

	// Deleting again is a no-op.
	if err := store.Delete("profile"); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	type partner struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	}

	in := partner{ID: "u-1", DisplayName: "Sam"}
	if err := store.PutJSON("partner", in); err != nil {
		t.Fatalf("put json: %v", err)
	}

	var out partner
	ok, err := store.GetJSON("partner", &out)
	if err != nil || !ok {
		t.Fatalf("get json: ok=%v err=%v", ok, err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}

	var missing partner
	ok, err = store.GetJSON("absent", &missing)
	if err != nil {
		t.Fatalf("get absent: %v", err)
	}
	if ok {
		t.Error("absent key reported as present")
	}
}

func TestSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Put("session:done:s-1", []byte("1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get("session:done:s-1")
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if string(value) != "1" {
		t.Errorf("got %q, want 1", value)
	}
}
