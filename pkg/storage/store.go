// Package storage writes leaderboard payloads to the output directory, one
// <year>.json per year, plus the files.json manifest read by the web app.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// ManifestName is the file listing available years, relative to the store directory.
const ManifestName = "files.json"

var yearFile = regexp.MustCompile(`^(\d{4})\.json$`)

// Store persists raw leaderboard bodies under a directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir. The directory is not touched until
// EnsureDir or a write.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("output directory is required")
	}
	return &Store{dir: filepath.Clean(dir)}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// EnsureDir creates the directory and any missing parents.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", s.dir, err)
	}
	return nil
}

// Path returns the file path for year.
func (s *Store) Path(year int) string {
	return filepath.Join(s.dir, strconv.Itoa(year)+".json")
}

// WriteYear replaces the file for year with data and returns its path.
// The data goes to a temporary file in the same directory first, so the
// year file is either the previous complete payload or the new one.
func (s *Store) WriteYear(year int, data []byte) (string, error) {
	path := s.Path(year)
	if err := writeAtomic(s.dir, path, data); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// ReadYear returns the stored payload for year.
func (s *Store) ReadYear(year int) ([]byte, error) {
	return os.ReadFile(s.Path(year))
}

// Years lists the years that have a file in the directory, ascending.
func (s *Store) Years() ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}

	var years []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := yearFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		y, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		years = append(years, y)
	}
	sort.Ints(years)
	return years, nil
}

// WriteManifest writes files.json: a JSON array of the year file names
// currently present, e.g. ["2015.json","2016.json"]. Files from earlier
// runs are included, so a year that failed this time but succeeded before
// stays listed.
func (s *Store) WriteManifest() (string, error) {
	years, err := s.Years()
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(years))
	for _, y := range years {
		names = append(names, strconv.Itoa(y)+".json")
	}

	data, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}

	path := filepath.Join(s.dir, ManifestName)
	if err := writeAtomic(s.dir, path, data); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
