package fileutils_test

import (
	"os"
	"path/filepath"
	"testing"

	"fjacquet/statement-ledger/internal/fileutils"

	"github.com/stretchr/testify/assert"
)

func TestMonthHint(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		month    int
		ok       bool
	}{
		{"iso year-month", "statement_2024-03.pdf", 3, true},
		{"compact year-month", "chase-202411.pdf", 11, true},
		{"full month name", "/tmp/March 2024.pdf", 3, true},
		{"short month name", "acct_sep_2024.PDF", 9, true},
		{"upper case name", "JANUARY.pdf", 1, true},
		{"month inside a word", "summary.pdf", 0, false},
		{"march inside a word", "marchand.pdf", 0, false},
		{"no hint", "statement.pdf", 0, false},
		{"invalid month number", "statement_2024-13.pdf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			month, ok := fileutils.MonthHint(tt.filename)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.month, month)
		})
	}
}

func TestYearHint(t *testing.T) {
	year, ok := fileutils.YearHint("statement_2024-03.pdf")
	assert.True(t, ok)
	assert.Equal(t, 2024, year)

	_, ok = fileutils.YearHint("statement-12345.pdf")
	assert.False(t, ok)
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "test.txt")
	err := os.WriteFile(testFile, []byte("test"), 0600)
	assert.NoError(t, err)

	assert.True(t, fileutils.FileExists(testFile))
	assert.False(t, fileutils.FileExists(filepath.Join(tmpDir, "nonexistent.txt")))
	assert.False(t, fileutils.FileExists(tmpDir))
}

func TestDirectoryExists(t *testing.T) {
	tmpDir := t.TempDir()

	assert.True(t, fileutils.DirectoryExists(tmpDir))
	assert.False(t, fileutils.DirectoryExists(filepath.Join(tmpDir, "nonexistent")))

	testFile := filepath.Join(tmpDir, "test.txt")
	err := os.WriteFile(testFile, []byte("test"), 0600)
	assert.NoError(t, err)
	assert.False(t, fileutils.DirectoryExists(testFile))
}

func TestEnsureDirectoryExists(t *testing.T) {
	tmpDir := t.TempDir()

	newDir := filepath.Join(tmpDir, "new", "nested", "dir")
	err := fileutils.EnsureDirectoryExists(newDir)
	assert.NoError(t, err)
	assert.True(t, fileutils.DirectoryExists(newDir))

	err = fileutils.EnsureDirectoryExists(tmpDir)
	assert.NoError(t, err)
}

func TestReadWriteFile(t *testing.T) {
	tmpDir := t.TempDir()

	nestedFile := filepath.Join(tmpDir, "a", "b", "summary.json")
	content := []byte(`{"year":2024}`)
	err := fileutils.WriteFile(nestedFile, content, 0600)
	assert.NoError(t, err)

	data, err := fileutils.ReadFile(nestedFile)
	assert.NoError(t, err)
	assert.Equal(t, content, data)

	_, err = fileutils.ReadFile(filepath.Join(tmpDir, "nonexistent.txt"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "file does not exist")
}

func TestListFilesWithExtension(t *testing.T) {
	tmpDir := t.TempDir()
	nestedDir := filepath.Join(tmpDir, "2024")
	assert.NoError(t, os.MkdirAll(nestedDir, 0750))

	for _, f := range []string{
		filepath.Join(tmpDir, "jan.pdf"),
		filepath.Join(tmpDir, "feb.PDF"),
		filepath.Join(nestedDir, "mar.pdf"),
		filepath.Join(tmpDir, "notes.txt"),
	} {
		assert.NoError(t, os.WriteFile(f, []byte("test"), 0600))
	}

	files, err := fileutils.ListFilesWithExtension(tmpDir, ".pdf")
	assert.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = fileutils.ListFilesWithExtension(tmpDir, ".csv")
	assert.NoError(t, err)
	assert.Len(t, files, 0)

	_, err = fileutils.ListFilesWithExtension(filepath.Join(tmpDir, "nonexistent"), ".pdf")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "directory does not exist")
}
