// Package badge renders the always-visible countdown badge.
//
// The badge is a one-line status file ("25:00 #4dabf7") that status bars such
// as tmux or polybar can poll. The last value is also kept in memory.
package badge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xvierd/keeper/internal/ports"
)

// Indicator implements ports.Indicator on a status file.
type Indicator struct {
	mu    sync.Mutex
	path  string
	text  string
	color string
}

// Ensure Indicator implements ports.Indicator.
var _ ports.Indicator = (*Indicator)(nil)

// New creates an indicator writing to path. An empty path keeps the badge in memory only.
func New(path string) *Indicator {
	return &Indicator{path: path}
}

// Show sets the badge text and colour.
func (i *Indicator) Show(text, color string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.text, i.color = text, color
	return i.write(strings.TrimSpace(text + " " + color))
}

// Clear empties the badge.
func (i *Indicator) Clear() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.text, i.color = "", ""
	return i.write("")
}

// Current returns the last text and colour shown.
func (i *Indicator) Current() (text, color string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.text, i.color
}

// Read parses a badge file written by an Indicator.
// A missing file reads as an empty badge.
func Read(path string) (text, color string, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to read badge: %w", err)
	}

	fields := strings.Fields(string(data))
	switch len(fields) {
	case 0:
		return "", "", nil
	case 1:
		return fields[0], "", nil
	default:
		return fields[0], fields[1], nil
	}
}

// write replaces the status file atomically so pollers never see a partial line.
func (i *Indicator) write(line string) error {
	if i.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(i.path), 0755); err != nil {
		return fmt.Errorf("failed to create badge directory: %w", err)
	}

	tmp := i.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(line+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write badge: %w", err)
	}
	if err := os.Rename(tmp, i.path); err != nil {
		return fmt.Errorf("failed to replace badge: %w", err)
	}
	return nil
}
