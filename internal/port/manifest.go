package port

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const manifestName = "manifest.json"

// FileRecord describes one file a port run produced.
type FileRecord struct {
	Source       string `json:"source"`
	Output       string `json:"output"`
	Renamed      bool   `json:"renamed,omitempty"`
	Replacements int    `json:"replacements,omitempty"`
	Binary       bool   `json:"binary,omitempty"`
	Bytes        int64  `json:"bytes"`
}

// Manifest records what a port run did. It is saved as manifest.json in
// the output directory so later runs and tooling can inspect the result.
type Manifest struct {
	SourceDir    string         `json:"sourceDir"`
	OutputDir    string         `json:"outputDir"`
	CreatedAt    time.Time      `json:"createdAt"`
	Files        []FileRecord   `json:"files"`
	RuleHits     map[string]int `json:"ruleHits,omitempty"`
	Replacements int            `json:"replacements"`
}

// Save atomically writes the manifest into dir.
func (m *Manifest) Save(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, manifestName), data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads the manifest from a ported output directory.
// Returns ErrNoManifest if the directory has none.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if os.IsNotExist(err) {
		return nil, &NoManifestError{Dir: dir}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to deserialize manifest: %w", err)
	}
	return &manifest, nil
}

// ErrNoManifest is returned when a directory has no port manifest.
// Use errors.Is(err, ErrNoManifest) to check for this error.
var ErrNoManifest = &NoManifestError{}

// NoManifestError represents a missing port manifest.
type NoManifestError struct {
	Dir string
}

func (e *NoManifestError) Error() string {
	if e.Dir != "" {
		return "no port manifest in " + e.Dir
	}
	return "no port manifest"
}

func (e *NoManifestError) Is(target error) bool {
	_, ok := target.(*NoManifestError)
	return ok
}
