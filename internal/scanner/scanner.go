// Package scanner finds markdown files to import as notes.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirScan holds the markdown files found under one directory
type DirScan struct {
	RootDir   string
	NotePaths []string // absolute paths to .md files, sorted
}

// ScanDir recursively scans rootDir for markdown files
func ScanDir(rootDir string) (*DirScan, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}

	scan := &DirScan{RootDir: absRoot}
	if err := walkDir(absRoot, scan); err != nil {
		return nil, err
	}
	sort.Strings(scan.NotePaths)
	return scan, nil
}

// Expand resolves command line arguments to markdown files: files are kept
// as given, directories are scanned. The order of arguments is preserved.
func Expand(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		scan, err := ScanDir(p)
		if err != nil {
			return nil, err
		}
		out = append(out, scan.NotePaths...)
	}
	return out, nil
}

func walkDir(dir string, scan *DirScan) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		absPath := filepath.Join(dir, name)

		if entry.IsDir() {
			if shouldSkipDir(name) {
				continue
			}
			if err := walkDir(absPath, scan); err != nil {
				return err
			}
		} else if isNoteFile(name) {
			scan.NotePaths = append(scan.NotePaths, absPath)
		}
	}
	return nil
}

// isNoteFile returns true for markdown files that are not hidden
func isNoteFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

// shouldSkipDir returns true for directories that should be skipped during scanning
func shouldSkipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "node_modules", "vendor", "__pycache__", "target", "build", "dist":
		return true
	}
	return false
}
