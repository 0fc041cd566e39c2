// Package store keeps written digests on the local file system
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dailydigest/models"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const (
	filePrefix = "DailyDigest_"
	fileSuffix = ".txt"

	// DateLayout is the date embedded in digest file names
	DateLayout = "2006-01-02"
)

var ErrNoDigests = errors.New("no digests written yet")

// Store writes and lists digest files in a single directory
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating output directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// FileName is the digest file name for a date, e.g. DailyDigest_2024-03-01.txt
func FileName(date time.Time) string {
	return filePrefix + date.Format(DateLayout) + fileSuffix
}

// ParseFileName returns the date encoded in a digest file name
func ParseFileName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return time.Time{}, false
	}
	date, err := time.Parse(DateLayout, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// WriteDigest stores the plain text digest for date, replacing an earlier one
func (s *Store) WriteDigest(date time.Time, text string) (string, error) {
	path := filepath.Join(s.dir, FileName(date))
	if err := writeAtomic(path, []byte(text)); err != nil {
		return "", fmt.Errorf("error saving digest: %w", err)
	}

	log.WithFields(log.Fields{
		"path":  path,
		"bytes": len(text),
	}).Info("Digest saved")
	return path, nil
}

// WriteHTML stores the HTML page under name inside the output directory
func (s *Store) WriteHTML(name, page string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("html file %q must be a plain file name", name)
	}

	path := filepath.Join(s.dir, name)
	if err := writeAtomic(path, []byte(page)); err != nil {
		return "", fmt.Errorf("error saving html page: %w", err)
	}

	log.WithFields(log.Fields{
		"path": path,
	}).Info("HTML page saved")
	return path, nil
}

// List returns the digests in the directory, newest first
func (s *Store) List() ([]models.DigestFile, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("error reading output directory: %w", err)
	}

	files := []models.DigestFile{}
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		date, ok := ParseFileName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, models.DigestFile{
			Name:    entry.Name(),
			Date:    date.Format(DateLayout),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	// ISO dates sort lexically
	sort.Slice(files, func(i, j int) bool {
		return files[i].Date > files[j].Date
	})
	return files, nil
}

func (s *Store) Latest() (models.DigestFile, error) {
	files, err := s.List()
	if err != nil {
		return models.DigestFile{}, err
	}
	if len(files) == 0 {
		return models.DigestFile{}, ErrNoDigests
	}
	return files[0], nil
}

// Read returns the content of a listed digest
func (s *Store) Read(name string) ([]byte, error) {
	if _, ok := ParseFileName(name); !ok || name != filepath.Base(name) {
		return nil, fmt.Errorf("%q is not a digest file: %w", name, os.ErrNotExist)
	}
	return os.ReadFile(filepath.Join(s.dir, name))
}

// Tidy removes digests dated more than keepDays before now and returns their names
func (s *Store) Tidy(keepDays int, now time.Time) ([]string, error) {
	if keepDays < 0 {
		return nil, fmt.Errorf("keep days must not be negative, got %d", keepDays)
	}

	files, err := s.List()
	if err != nil {
		return nil, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, -keepDays).Format(DateLayout)

	expired := lo.Filter(files, func(f models.DigestFile, _ int) bool {
		return f.Date < cutoff
	})

	log.WithFields(log.Fields{
		"dir":     s.dir,
		"cutoff":  cutoff,
		"expired": len(expired),
	}).Info("Tidying digests")

	removed := []string{}
	for _, f := range expired {
		if err := os.Remove(filepath.Join(s.dir, f.Name)); err != nil {
			return removed, fmt.Errorf("error removing %s: %w", f.Name, err)
		}
		removed = append(removed, f.Name)
	}
	return removed, nil
}

// writeAtomic writes to a temporary file in the target directory, then renames it
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tempPath := tmp.Name()
	defer os.Remove(tempPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return err
	}
	return os.Rename(tempPath, path)
}
