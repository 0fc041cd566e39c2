package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dailydigest/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse(store.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "DailyDigest_2024-03-01.txt", store.FileName(time.Date(2024, 3, 1, 23, 59, 0, 0, time.Local)))

	parsed, ok := store.ParseFileName("DailyDigest_2024-03-01.txt")
	require.True(t, ok)
	assert.Equal(t, date("2024-03-01"), parsed)

	for _, name := range []string{"index.html", "DailyDigest_tomorrow.txt", "DailyDigest_2024-03-01.html", "digest.txt"} {
		_, ok := store.ParseFileName(name)
		assert.False(t, ok, name)
	}
}

func TestWriteDigest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s, err := store.New(dir)
	require.NoError(t, err)

	path, err := s.WriteDigest(date("2024-03-01"), "first")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "DailyDigest_2024-03-01.txt"), path)

	// A second run on the same day replaces the file
	_, err = s.WriteDigest(date("2024-03-01"), "second")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestWriteHTML(t *testing.T) {
	s, err := store.New(t.TempDir())
	require.NoError(t, err)

	path, err := s.WriteHTML("index.html", "<html></html>")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "index.html"), path)

	_, err = s.WriteHTML("../index.html", "<html></html>")
	assert.Error(t, err)
	_, err = s.WriteHTML("", "<html></html>")
	assert.Error(t, err)
}

func TestListAndLatest(t *testing.T) {
	s, err := store.New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Latest()
	assert.ErrorIs(t, err, store.ErrNoDigests)

	for _, d := range []string{"2024-02-28", "2024-03-01", "2024-02-29"} {
		_, err := s.WriteDigest(date(d), "digest "+d)
		require.NoError(t, err)
	}
	_, err = s.WriteHTML("index.html", "<html></html>")
	require.NoError(t, err)

	files, err := s.List()
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, []string{"2024-03-01", "2024-02-29", "2024-02-28"},
		[]string{files[0].Date, files[1].Date, files[2].Date})
	assert.Equal(t, int64(len("digest 2024-03-01")), files[0].Size)

	latest, err := s.Latest()
	require.NoError(t, err)
	assert.Equal(t, "DailyDigest_2024-03-01.txt", latest.Name)

	data, err := s.Read(latest.Name)
	require.NoError(t, err)
	assert.Equal(t, "digest 2024-03-01", string(data))

	_, err = s.Read("index.html")
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = s.Read("../DailyDigest_2024-03-01.txt")
	assert.Error(t, err)
}

func TestTidy(t *testing.T) {
	s, err := store.New(t.TempDir())
	require.NoError(t, err)

	for _, d := range []string{"2024-02-20", "2024-02-24", "2024-02-25", "2024-03-01"} {
		_, err := s.WriteDigest(date(d), d)
		require.NoError(t, err)
	}

	now := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	removed, err := s.Tidy(5, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"DailyDigest_2024-02-24.txt", "DailyDigest_2024-02-20.txt"}, removed)

	files, err := s.List()
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = s.Tidy(-1, now)
	assert.Error(t, err)
}
