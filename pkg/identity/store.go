package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// record is the on-disk shape of the identity file.
type record struct {
	UUID string `yaml:"uuid,omitempty"`
}

// Store reads and writes the identity record at a fixed path.
type Store struct {
	path string
}

// NewStore returns a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the identity record.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored identity, or nil when no record exists or the
// record carries no UUID. A record that cannot be parsed is an error so a
// corrupted file is never silently replaced.
func (s *Store) Load() (*uuid.UUID, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read identity file %q: %w", s.path, err)
	}

	var rec record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse identity file %q: %w", s.path, err)
	}
	if rec.UUID == "" {
		return nil, nil
	}

	id, err := uuid.Parse(rec.UUID)
	if err != nil {
		return nil, fmt.Errorf("identity file %q holds an invalid uuid: %w", s.path, err)
	}
	return &id, nil
}

// Save writes id to the record, creating parent directories as needed.
// The file is replaced atomically via a temporary file and rename.
func (s *Store) Save(id uuid.UUID) error {
	if id == uuid.Nil {
		return errors.New("refusing to persist the nil uuid")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create identity directory: %w", err)
	}

	data, err := yaml.Marshal(record{UUID: id.String()})
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".identity-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temporary identity file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write identity: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write identity: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace identity file: %w", err)
	}

	return nil
}
