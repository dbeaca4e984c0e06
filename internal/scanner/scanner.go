// Package scanner resolves input arguments to transaction files.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Resolve expands the given paths into the list of transaction files to
// ingest. A regular-file argument is used as-is; a directory argument is
// walked recursively for .csv files (case-insensitive), the way statement
// directories are organized. A missing path is a fatal error, not a
// skippable record error.
func Resolve(paths []string) ([]string, error) {
	var files []string

	for _, path := range paths {
		expanded := expandHome(path)

		info, err := os.Stat(expanded)
		if err != nil {
			return nil, fmt.Errorf("failed to stat input %s: %w", path, err)
		}

		if !info.IsDir() {
			files = append(files, expanded)
			continue
		}

		found, err := scanDir(expanded)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no .csv files found in directory %s", path)
		}
		files = append(files, found...)
	}

	return files, nil
}

func scanDir(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) == ".csv" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan of %s failed: %w", dir, err)
	}

	// Walk order is already lexical, but be explicit so ingestion order is
	// reproducible across platforms.
	sort.Strings(files)
	return files, nil
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
