package updater

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// State records the last applied update so an unchanged IP can skip the
// provider write path on later cycles.
type State struct {
	IP         string    `yaml:"ip"`
	RecordName string    `yaml:"record_name"`
	RecordType string    `yaml:"record_type"`
	Provider   string    `yaml:"provider"`
	UpdatedAt  time.Time `yaml:"updated_at"`
}

// StateStore persists State as a small YAML file. The filesystem is
// abstracted so tests run against an in-memory one.
type StateStore struct {
	fs   afero.Fs
	path string
}

// NewStateStore creates a store writing to path on the given filesystem
func NewStateStore(fs afero.Fs, path string) *StateStore {
	return &StateStore{fs: fs, path: path}
}

// Load returns the cached state, or nil when no state has been saved yet
func (s *StateStore) Load(ctx context.Context) (*State, error) {
	tracer := otel.Tracer("cfupdater")
	_, span := tracer.Start(ctx, "updater.StateStore.Load")
	defer span.End()

	span.SetAttributes(attribute.String("state.path", s.path))

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read state file %s: %w", s.path, err)
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse state file %s: %w", s.path, err)
	}

	return &state, nil
}

// Save writes the state, creating parent directories as needed
func (s *StateStore) Save(ctx context.Context, state State) error {
	tracer := otel.Tracer("cfupdater")
	_, span := tracer.Start(ctx, "updater.StateStore.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("state.path", s.path),
		attribute.String("state.ip", state.IP),
	)

	data, err := yaml.Marshal(state)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create state directory %s: %w", dir, err)
		}
	}

	if err := afero.WriteFile(s.fs, s.path, data, 0o600); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to write state file %s: %w", s.path, err)
	}

	return nil
}

// Matches reports whether the cached state covers the given update target
func (s *State) Matches(ip, recordName, recordType, provider string) bool {
	if s == nil {
		return false
	}
	return s.IP == ip &&
		s.RecordName == recordName &&
		s.RecordType == recordType &&
		s.Provider == provider
}
