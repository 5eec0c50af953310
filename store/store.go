// Package store is the local persistence layer: one JSON file per key under a
// single directory. Records are read at startup and written on mutation;
// malformed files fall back to defaults rather than failing startup.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	currentUserKey = "current_user"
	configKey      = "global_app_config"
	userKeyPrefix  = "user_"
)

type Store struct {
	dir string
}

func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return &Store{dir: dir}, nil
}

// DefaultDir places the store next to the log directory convention.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "chartwatch", "data"), nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// get unmarshals the record for key into v. Returns false when the record is
// missing or malformed; the caller keeps its default.
func (s *Store) get(key string, v any) bool {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false
	}
	return true
}

func (s *Store) put(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", key, err)
	}
	return os.WriteFile(s.path(key), data, 0644)
}

func (s *Store) remove(key string) {
	os.Remove(s.path(key))
}

// keys lists stored keys with the given prefix.
func (s *Store) keys(prefix string) []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		key := strings.TrimSuffix(name, ".json")
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	return out
}
