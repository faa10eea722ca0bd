package engine

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIncludePatterns matches .ts, .tsx, .js and .jsx files, so a caller
// that does not configure include patterns still only walks files the engine
// can actually parse. parser.DetectLanguage also accepts .mts, .cts, .mjs and
// .cjs, which these defaults do not match.
var DefaultIncludePatterns = []string{"**/*.ts", "**/*.tsx", "**/*.js", "**/*.jsx"}

// DefaultExcludePatterns skips the directories every JS/TS project
// accumulates that are never worth walking for translation calls.
var DefaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/dist/**",
	"**/build/**",
	"**/.next/**",
	"**/coverage/**",
}

// DiscoverFiles walks rootPath and returns every file matching at least one
// include pattern and no exclude pattern: validate patterns up front, then
// filepath.WalkDir with exclude checked (and SkipDir applied to matched
// directories) before include. A nil/empty include list uses
// DefaultIncludePatterns; exclude is appended to DefaultExcludePatterns,
// never replacing it, so a caller can tighten but not accidentally widen
// the default ignore set.
func DiscoverFiles(rootPath string, include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = DefaultIncludePatterns
	}
	exclude = append(append([]string{}, DefaultExcludePatterns...), exclude...)

	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("engine: invalid include pattern: %s", pattern)
		}
	}
	for _, pattern := range exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("engine: invalid exclude pattern: %s", pattern)
		}
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, relErr := filepath.Rel(rootPath, path)
		if relErr != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		for _, pattern := range exclude {
			if matched, _ := doublestar.PathMatch(pattern, relPath); matched {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			return nil
		}

		for _, pattern := range include {
			if matched, _ := doublestar.PathMatch(pattern, relPath); matched {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
