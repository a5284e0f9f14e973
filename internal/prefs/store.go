// Package prefs persists the user's preferred app role on the local machine.
// The stored value is a UX shortcut and never an authorization grant.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type Role string

const (
	RoleNone     Role = ""
	RoleCustomer Role = "customer"
	RolePartner  Role = "partner"
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RolePartner, RoleOwner, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole returns RoleNone for anything it does not recognise.
func ParseRole(s string) Role {
	if r := Role(s); r.Valid() {
		return r
	}
	return RoleNone
}

// Version is the on-disk schema version written by Save.
const Version = 1

type Store interface {
	Load() (Role, error)
	Save(Role) error
	Clear() error
}

type file struct {
	Version int    `json:"version"`
	Role    string `json:"role"`
}

type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath places the file under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "presswala", "prefs.json"), nil
}

// Load returns RoleNone when the file is missing, unreadable as JSON, from
// another schema version, or holds an unknown role.
func (s *FileStore) Load() (Role, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RoleNone, nil
		}
		return RoleNone, fmt.Errorf("read preferences: %w", err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return RoleNone, nil
	}
	if f.Version != Version {
		return RoleNone, nil
	}
	return ParseRole(f.Role), nil
}

func (s *FileStore) Save(r Role) error {
	if !r.Valid() {
		return fmt.Errorf("invalid role %q", r)
	}

	data, err := json.Marshal(file{Version: Version, Role: string(r)})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear preferences: %w", err)
	}
	return nil
}
