package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

var SaveDir = ".saves"

const (
	sessionFile = "session.yaml"
	historyFile = "history.yaml"
)

// PhaseLog is the narrated output of one step, kept alongside a saved session.
type PhaseLog struct {
	Day    int           `yaml:"day"`
	Kind   PhaseKind     `yaml:"kind,omitempty"`
	Title  string        `yaml:"title"`
	Events []EventRecord `yaml:"events,omitempty"`
	Fallen []string      `yaml:"fallen,omitempty"`
}

func (s *GameSession) Save(name string) error {
	dir := filepath.Join(SaveDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, sessionFile), data, 0644)
}

// AppendHistory adds one phase log to the saved history of a session.
func AppendHistory(name string, entry PhaseLog) error {
	dir := filepath.Join(SaveDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	history, err := LoadHistory(name)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	history = append(history, entry)

	data, err := yaml.Marshal(history)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, historyFile), data, 0644)
}

// ClearHistory drops the saved history of name, if any.
func ClearHistory(name string) error {
	err := os.Remove(filepath.Join(SaveDir, name, historyFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func LoadHistory(name string) ([]PhaseLog, error) {
	data, err := os.ReadFile(filepath.Join(SaveDir, name, historyFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var history []PhaseLog
	if err := yaml.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", name, err)
	}
	return history, nil
}

func LoadSession(name string) (*GameSession, error) {
	data, err := os.ReadFile(filepath.Join(SaveDir, name, sessionFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrSessionNotFound)
	}
	if err != nil {
		return nil, err
	}

	var session GameSession
	if err := yaml.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", name, err)
	}
	if session.RecentTemplates == nil {
		session.RecentTemplates = make(map[string]int)
	}
	if session.Aux.Transformations == nil {
		session.Aux.Transformations = make(map[string]Transformation)
	}
	return &session, nil
}

func ListSessions() ([]string, error) {
	if _, err := os.Stat(SaveDir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(SaveDir)
	if err != nil {
		return nil, err
	}

	var sessions []string
	for _, entry := range entries {
		if entry.IsDir() {
			// session.yaml marks a valid save
			path := filepath.Join(SaveDir, entry.Name(), sessionFile)
			if _, err := os.Stat(path); err == nil {
				sessions = append(sessions, entry.Name())
			}
		}
	}
	sort.Strings(sessions)
	return sessions, nil
}
