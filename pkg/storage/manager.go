package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultFileNamePattern names exported files. {app}, {date} (YYYYMMDD) and
// {ext} are substituted.
const DefaultFileNamePattern = "reviews_{app}_{date}.{ext}"

// Manager writes run artifacts into one output directory
type Manager struct {
	outputDir string
	pattern   string
	saved     map[string]bool
	mu        sync.RWMutex
}

// NewManager creates a new storage manager. The output directory is created
// by the first Save.
func NewManager(outputDir, pattern string) *Manager {
	if outputDir == "" {
		outputDir = "."
	}
	if pattern == "" {
		pattern = DefaultFileNamePattern
	}

	return &Manager{
		outputDir: outputDir,
		pattern:   pattern,
		saved:     make(map[string]bool),
	}
}

// FileName renders the pattern for one artifact
func (m *Manager) FileName(appID string, day time.Time, ext string) string {
	name := strings.NewReplacer(
		"{app}", sanitize(appID),
		"{date}", day.Format("20060102"),
		"{ext}", ext,
	).Replace(m.pattern)
	return filepath.Base(name)
}

// sanitize keeps an app id safe to use as part of a file name
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}

// Exists reports whether name is already present in the output directory
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(m.outputDir, name))
	return err == nil
}

// Save writes an artifact through write, atomically replacing any previous
// file of the same name. It returns the final path.
func (m *Manager) Save(name string, write func(w io.Writer) error) (string, error) {
	filename := filepath.Join(m.outputDir, name)

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(m.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	// Create temporary file first
	out, err := os.CreateTemp(m.outputDir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	err = write(out)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile) // Clean up temp file
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	if closeErr != nil {
		os.Remove(tempFile) // Clean up temp file
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile) // Clean up temp file
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[filename] = true
	m.mu.Unlock()

	return filename, nil
}

// Saved returns the paths written by this manager, sorted
func (m *Manager) Saved() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.saved))
	for p := range m.saved {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
