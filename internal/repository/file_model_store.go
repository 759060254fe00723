package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"MarketSense/internal/domain/repository"
)

// FileModelStore persists model bundles as versioned JSON files under a
// directory, with a "latest" pointer file for startup loading.
type FileModelStore struct {
	dir string
}

// NewFileModelStore creates the store and ensures the directory exists.
func NewFileModelStore(dir string) (repository.ModelStore, error) {
	if dir == "" {
		dir = "models"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	return &FileModelStore{dir: dir}, nil
}

func (s *FileModelStore) path(version string) string {
	return filepath.Join(s.dir, "model_"+version+".json")
}

func (s *FileModelStore) Save(_ context.Context, version string, payload []byte) error {
	if version == "" || strings.ContainsAny(version, "/\\") {
		return fmt.Errorf("invalid model version %q", version)
	}
	tmp := s.path(version) + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	if err := os.Rename(tmp, s.path(version)); err != nil {
		return fmt.Errorf("commit model: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, "latest"), []byte(version), 0o644); err != nil {
		return fmt.Errorf("update latest pointer: %w", err)
	}
	return nil
}

func (s *FileModelStore) Load(_ context.Context, version string) ([]byte, error) {
	if version == "" || strings.ContainsAny(version, "/\\") {
		return nil, fmt.Errorf("invalid model version %q", version)
	}
	payload, err := os.ReadFile(s.path(version))
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", version, err)
	}
	return payload, nil
}

func (s *FileModelStore) LoadLatest(ctx context.Context) (string, []byte, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, "latest"))
	if err != nil {
		return "", nil, fmt.Errorf("no latest model: %w", err)
	}
	version := strings.TrimSpace(string(raw))
	payload, err := s.Load(ctx, version)
	if err != nil {
		return "", nil, err
	}
	return version, payload, nil
}
