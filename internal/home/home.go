// Package home manages the procdoc home directory layout.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the procdoc home directory.
	DefaultDirName = ".procdoc"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the procdoc home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.procdoc).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// DetectionDir holds intermediate section-detection results.
func (d *Dir) DetectionDir() string {
	return filepath.Join(d.path, "intermediate", "detection")
}

// SectionsDir holds per-section extraction results.
func (d *Dir) SectionsDir() string {
	return filepath.Join(d.path, "intermediate", "sections")
}

// ReviewDir holds documents queued for human review.
func (d *Dir) ReviewDir() string {
	return filepath.Join(d.path, "intermediate", "review_queue")
}

// FinalDir holds validated final document JSON.
func (d *Dir) FinalDir() string {
	return filepath.Join(d.path, "final")
}

// LogsDir holds progress tracking and run logs.
func (d *Dir) LogsDir() string {
	return filepath.Join(d.path, "logs")
}

// PageImagesDir returns the scratch directory for rasterized pages of a document.
func (d *Dir) PageImagesDir(documentID string) string {
	return filepath.Join(d.path, "pages", documentID)
}

// EnsureExists creates the home directory tree if it doesn't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{
		d.DetectionDir(),
		d.SectionsDir(),
		d.ReviewDir(),
		d.FinalDir(),
		d.LogsDir(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
