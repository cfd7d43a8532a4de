package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// savedSession is the on-disk form of a signed-in session.
type savedSession struct {
	Server string `yaml:"server"`
	Email  string `yaml:"email"`
	Token  string `yaml:"token"`
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "sbc-auth", "session.yaml")
}

func loadSession(path string) (savedSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return savedSession{}, err
	}
	var s savedSession
	if err := yaml.Unmarshal(data, &s); err != nil {
		return savedSession{}, fmt.Errorf("parse session file: %w", err)
	}
	return s, nil
}

func saveSession(path string, s savedSession) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func removeSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
