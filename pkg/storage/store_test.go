package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("Expected error for empty directory")
	}

	s, err := New("out/data/")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Dir() != filepath.Clean("out/data") {
		t.Errorf("Dir() = %q", s.Dir())
	}
}

func TestEnsureDir_CreatesParents(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "leaderboard-app", "public", "data")
	s, _ := New(dir)

	if err := s.EnsureDir(); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !info.IsDir() {
		t.Error("Expected a directory")
	}

	// Second call is a no-op.
	if err := s.EnsureDir(); err != nil {
		t.Errorf("EnsureDir() second call error = %v", err)
	}
}

func TestEnsureDir_FileInTheWay(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "data")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, _ := New(filepath.Join(blocker, "nested"))
	if err := s.EnsureDir(); err == nil {
		t.Error("Expected error when a file blocks the path")
	}
}

func TestWriteYear(t *testing.T) {
	s, _ := New(t.TempDir())
	if err := s.EnsureDir(); err != nil {
		t.Fatal(err)
	}

	path, err := s.WriteYear(2021, []byte(`{"x":1}`))
	if err != nil {
		t.Fatalf("WriteYear() error = %v", err)
	}
	if path != filepath.Join(s.Dir(), "2021.json") {
		t.Errorf("path = %q", path)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"x":1}` {
		t.Errorf("content = %q, want %q", got, `{"x":1}`)
	}
}

func TestWriteYear_Overwrites(t *testing.T) {
	s, _ := New(t.TempDir())
	if err := s.EnsureDir(); err != nil {
		t.Fatal(err)
	}

	if _, err := s.WriteYear(2021, []byte(`{"first":"a much longer payload than the second"}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteYear(2021, []byte(`{"second":2}`)); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadYear(2021)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"second":2}` {
		t.Errorf("content = %q, want only the latest payload", got)
	}
}

func TestWriteYear_LeavesNoTempFiles(t *testing.T) {
	s, _ := New(t.TempDir())
	if err := s.EnsureDir(); err != nil {
		t.Fatal(err)
	}

	for _, y := range []int{2015, 2016} {
		if _, err := s.WriteYear(y, []byte(`{}`)); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
}

func TestWriteYear_MissingDir(t *testing.T) {
	s, _ := New(filepath.Join(t.TempDir(), "missing"))

	if _, err := s.WriteYear(2021, []byte(`{}`)); err == nil {
		t.Error("Expected error when directory does not exist")
	}
}

func TestYears(t *testing.T) {
	s, _ := New(t.TempDir())
	if err := s.EnsureDir(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"2017.json", "2015.json", "files.json", "notes.txt", "20210.json", ".2018.json.123.tmp"} {
		if err := os.WriteFile(filepath.Join(s.Dir(), name), []byte(`{}`), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(s.Dir(), "2019.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	years, err := s.Years()
	if err != nil {
		t.Fatalf("Years() error = %v", err)
	}
	if len(years) != 2 || years[0] != 2015 || years[1] != 2017 {
		t.Errorf("Years() = %v, want [2015 2017]", years)
	}
}

func TestWriteManifest(t *testing.T) {
	s, _ := New(t.TempDir())
	if err := s.EnsureDir(); err != nil {
		t.Fatal(err)
	}

	for _, y := range []int{2023, 2015, 2021} {
		if _, err := s.WriteYear(y, []byte(`{}`)); err != nil {
			t.Fatal(err)
		}
	}

	path, err := s.WriteManifest()
	if err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}
	if filepath.Base(path) != ManifestName {
		t.Errorf("path = %q", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		t.Fatalf("manifest is not a JSON array: %v", err)
	}
	want := []string{"2015.json", "2021.json", "2023.json"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("manifest = %v, want %v", names, want)
	}

	// Rewriting does not list the manifest itself.
	if _, err := s.WriteManifest(); err != nil {
		t.Fatal(err)
	}
	years, _ := s.Years()
	if len(years) != 3 {
		t.Errorf("Years() = %v after manifest rewrite", years)
	}
}

func TestWriteManifest_Empty(t *testing.T) {
	s, _ := New(t.TempDir())

	path, err := s.WriteManifest()
	if err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "[]" {
		t.Errorf("manifest = %q, want []", raw)
	}
}
