package dataset

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	return f, err == nil
}

// WriteFile writes records to path in format f, creating parent
// directories as needed.
func WriteFile(path string, records []Record, f Format) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	var buf bytes.Buffer
	if err := Write(&buf, records, f); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteAll writes records to dir in every format under the conventional
// file names and returns the paths written.
func WriteAll(dir string, records []Record) ([]string, error) {
	var paths []string
	for _, f := range []Format{FormatJSON, FormatCSV} {
		path := filepath.Join(dir, FileName(f))
		if err := WriteFile(path, records, f); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
