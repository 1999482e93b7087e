package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Session struct {
	PlayerKey string `json:"player_key"`
	Handle    string `json:"handle"`
}

func baseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".nv")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func sessionPath() (string, error) {
	dir, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

func SaveSession(s Session) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o600)
}

func LoadSession() (Session, error) {
	path, err := sessionPath()
	if err != nil {
		return Session{}, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, err
	}
	if strings.TrimSpace(s.PlayerKey) == "" {
		return Session{}, fmt.Errorf("no player key found in session")
	}
	return s, nil
}

// EnsureSession returns the stored session, minting a fresh player key on
// first use so the CLI works without any signup step.
func EnsureSession(handle string) (Session, error) {
	s, err := LoadSession()
	if err == nil {
		if handle != "" && handle != s.Handle {
			s.Handle = handle
			if err := SaveSession(s); err != nil {
				return Session{}, err
			}
		}
		return s, nil
	}
	if handle == "" {
		handle = "investor"
	}
	s = Session{PlayerKey: uuid.NewString(), Handle: handle}
	if err := SaveSession(s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func ClearSession() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return os.Remove(path)
}
