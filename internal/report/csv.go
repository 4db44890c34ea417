// Package report delivers a run's results: CSV on disk, new listings by email.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conanology/job-tracker/internal/domain"
)

// ErrIO marks a CSV write failure. Fatal to the run.
var ErrIO = errors.New("io failure")

// CSV columns are a public contract: name, value, url.
var csvHeader = []string{"name", "value", "url"}

// WriteCSV overwrites path with one row per listing, header included,
// UTF-8. The parent directory is created when missing.
func WriteCSV(path string, listings []domain.Listing) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: mkdir %s: %v", ErrIO, dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrIO, path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("%w: write header: %v", ErrIO, err)
	}
	for _, l := range listings {
		if err := w.Write([]string{l.Title, csvValue(l), l.URL}); err != nil {
			return fmt.Errorf("%w: write row: %v", ErrIO, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flush %s: %v", ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrIO, path, err)
	}
	return nil
}

// csvValue builds the free-form composite column from company, location and
// skill tags.
func csvValue(l domain.Listing) string {
	var parts []string
	if l.Company != "" {
		parts = append(parts, l.Company)
	}
	if l.Location != "" {
		parts = append(parts, l.Location)
	}
	if len(l.Skills) > 0 {
		parts = append(parts, strings.Join(l.Skills, ", "))
	}
	return strings.Join(parts, " - ")
}
