package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/a11yspectre/internal/models"
)

const (
	artifactPrefix = "report_"
	artifactLayout = "20060102_150405"

	// maxCollisions bounds the _N suffixes tried for one timestamp.
	maxCollisions = 1000
)

// ArtifactDir manages rendered report files on the local filesystem
type ArtifactDir struct {
	baseDir string
}

// NewArtifactDir creates an artifact directory handle rooted at baseDir
func NewArtifactDir(baseDir string) *ArtifactDir {
	return &ArtifactDir{
		baseDir: baseDir,
	}
}

// PathFor returns where a report generated at ts in the given format lives.
// Both formats of one check share the timestamp and differ by extension.
func (d *ArtifactDir) PathFor(ts time.Time, format models.Format) string {
	return filepath.Join(d.baseDir, artifactPrefix+ts.Format(artifactLayout)+format.Extension())
}

// Write stores a rendered document and returns its path. Existing files are
// never replaced: when the name is taken, _2, _3 and so on are appended to
// the timestamp.
func (d *ArtifactDir) Write(ts time.Time, format models.Format, data []byte) (string, error) {
	if err := d.EnsureDirectoryExists(); err != nil {
		return "", err
	}

	base := d.PathFor(ts, format)
	for n := 1; n <= maxCollisions; n++ {
		path := base
		if n > 1 {
			path = strings.TrimSuffix(base, format.Extension()) + "_" + strconv.Itoa(n) + format.Extension()
		}

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to write file: %w", err)
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("failed to write file: %w", err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("failed to write file: %w", err)
		}
		return path, nil
	}

	return "", fmt.Errorf("failed to write file: %s taken %d times", base, maxCollisions)
}

// List returns the artifacts present on disk, oldest first
func (d *ArtifactDir) List() ([]models.ReportArtifact, error) {
	if _, err := os.Stat(d.baseDir); os.IsNotExist(err) {
		return []models.ReportArtifact{}, nil
	}

	entries, err := os.ReadDir(d.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read reports directory: %w", err)
	}

	artifacts := []models.ReportArtifact{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), artifactPrefix) {
			continue
		}

		ext := filepath.Ext(entry.Name())
		var format models.Format
		switch ext {
		case models.FormatHTML.Extension():
			format = models.FormatHTML
		case models.FormatPDF.Extension():
			format = models.FormatPDF
		default:
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(entry.Name(), artifactPrefix), ext)
		if len(stamp) > len(artifactLayout) && stamp[len(artifactLayout)] == '_' {
			if _, err := strconv.Atoi(stamp[len(artifactLayout)+1:]); err == nil {
				stamp = stamp[:len(artifactLayout)]
			}
		}
		ts, err := time.ParseInLocation(artifactLayout, stamp, time.Local)
		if err != nil {
			// Not one of ours
			continue
		}

		artifacts = append(artifacts, models.ReportArtifact{
			GeneratedAt: ts,
			Format:      format,
			Path:        filepath.Join(d.baseDir, entry.Name()),
		})
	}

	sort.SliceStable(artifacts, func(i, j int) bool {
		return artifacts[i].GeneratedAt.Before(artifacts[j].GeneratedAt)
	})

	return artifacts, nil
}

// Exists reports whether a stored artifact path is still on disk
func Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GetStoragePath returns the full path to the reports directory
func (d *ArtifactDir) GetStoragePath() string {
	return d.baseDir
}

// EnsureDirectoryExists creates the reports directory if it doesn't exist
func (d *ArtifactDir) EnsureDirectoryExists() error {
	if err := os.MkdirAll(d.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}
	return nil
}
