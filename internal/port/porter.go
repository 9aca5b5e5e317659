package port

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// binarySniffLen bounds how much of a file is inspected for NUL bytes.
const binarySniffLen = 8192

// Porter rewrites a source tree. Rules apply in order to files accepted
// by Include; Extensions renames output files. With DryRun set, Port
// computes the manifest without writing anything.
type Porter struct {
	Rules      []Rule
	Extensions map[string]string
	Include    func(path string) bool
	DryRun     bool
}

// NewMUSAPorter returns a Porter loaded with the default MUSA mapping.
func NewMUSAPorter() *Porter {
	return &Porter{
		Rules:      DefaultMUSARules(),
		Extensions: DefaultExtensionRenames(),
		Include:    DefaultInclude,
	}
}

// Port rewrites srcDir into dstDir and returns a manifest of what it did.
// An empty dstDir defaults to srcDir + "_musa". srcDir is never modified;
// existing files in dstDir are replaced.
func (p *Porter) Port(srcDir, dstDir string) (*Manifest, error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source %s is not a directory", srcDir)
	}
	if dstDir == "" {
		dstDir = strings.TrimSuffix(srcDir, string(os.PathSeparator)) + "_musa"
	}
	// Porting into the source tree would make the walk read its own output.
	absSrc, err := filepath.Abs(srcDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source directory: %w", err)
	}
	absDst, err := filepath.Abs(dstDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if rel, err := filepath.Rel(absSrc, absDst); err == nil && filepath.IsLocal(rel) {
		return nil, fmt.Errorf("output directory %s is inside source directory %s", dstDir, srcDir)
	}

	manifest := &Manifest{
		SourceDir: srcDir,
		OutputDir: dstDir,
		CreatedAt: time.Now().UTC(),
		RuleHits:  map[string]int{},
	}

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if rel == "." || p.DryRun {
				return nil
			}
			return os.MkdirAll(filepath.Join(dstDir, rel), 0755)
		}
		record, err := p.portFile(path, rel, dstDir, manifest)
		if err != nil {
			return err
		}
		manifest.Files = append(manifest.Files, record)
		manifest.Replacements += record.Replacements
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to port %s: %w", srcDir, err)
	}

	if !p.DryRun {
		if err := manifest.Save(dstDir); err != nil {
			return nil, err
		}
	}
	slog.Info("Ported sources", "source", srcDir, "output", dstDir,
		"files", len(manifest.Files), "replacements", manifest.Replacements, "dryRun", p.DryRun)
	return manifest, nil
}

func (p *Porter) portFile(srcPath, rel, dstDir string, manifest *Manifest) (FileRecord, error) {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return FileRecord{}, fmt.Errorf("failed to read %s: %w", srcPath, err)
	}

	outRel := p.renamed(rel)
	record := FileRecord{
		Source:  rel,
		Output:  outRel,
		Renamed: outRel != rel,
		Binary:  isBinary(data),
	}

	if !record.Binary && p.Include != nil && p.Include(srcPath) {
		text := string(data)
		for _, rule := range p.Rules {
			hits := strings.Count(text, rule.From)
			if hits == 0 {
				continue
			}
			text = strings.ReplaceAll(text, rule.From, rule.To)
			record.Replacements += hits
			manifest.RuleHits[rule.From] += hits
		}
		data = []byte(text)
	}
	record.Bytes = int64(len(data))

	if !p.DryRun {
		if err := writeFileAtomic(filepath.Join(dstDir, outRel), data); err != nil {
			return FileRecord{}, err
		}
	}
	return record, nil
}

// renamed applies the extension renames to a relative path.
func (p *Porter) renamed(rel string) string {
	ext := filepath.Ext(rel)
	to, ok := p.Extensions[ext]
	if !ok {
		return rel
	}
	return strings.TrimSuffix(rel, ext) + to
}

func isBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// writeFileAtomic writes data via a temp file and rename so readers never
// observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename %s: %w", path, err)
	}
	return nil
}
