package updater

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestStateStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	store := NewStateStore(fs, "cache/cfupdater/state.yaml")

	saved := State{
		IP:         "203.0.113.7",
		RecordName: "home.example.com",
		RecordType: "A",
		Provider:   "cloudflare",
		UpdatedAt:  time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load() = nil, want state")
	}
	if *loaded != saved {
		t.Errorf("Load() = %+v, want %+v", *loaded, saved)
	}
}

func TestStateStoreLoadMissing(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore(afero.NewMemMapFs(), "state.yaml")

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed for missing file: %v", err)
	}
	if loaded != nil {
		t.Fatalf("Load() = %+v, want nil for missing file", loaded)
	}
}

func TestStateStoreLoadCorrupt(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "state.yaml", []byte("ip: [not: valid"), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	store := NewStateStore(fs, "state.yaml")
	if _, err := store.Load(ctx); err == nil {
		t.Fatal("Load() should fail for a corrupt state file")
	}
}

func TestStateMatches(t *testing.T) {
	state := &State{
		IP:         "203.0.113.7",
		RecordName: "home.example.com",
		RecordType: "A",
		Provider:   "cloudflare",
	}

	if !state.Matches("203.0.113.7", "home.example.com", "A", "cloudflare") {
		t.Error("Matches() = false for identical target")
	}
	if state.Matches("198.51.100.1", "home.example.com", "A", "cloudflare") {
		t.Error("Matches() = true for different IP")
	}
	if state.Matches("203.0.113.7", "home.example.com", "A", "route53") {
		t.Error("Matches() = true for different provider")
	}

	var nilState *State
	if nilState.Matches("203.0.113.7", "home.example.com", "A", "cloudflare") {
		t.Error("Matches() on nil state should be false")
	}
}
