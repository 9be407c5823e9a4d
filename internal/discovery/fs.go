package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrNoSuites indicates that no suite record files were found during discovery.
	ErrNoSuites = errors.New("no suites discovered")
	// ErrSuitesDirMissing indicates the suites directory does not exist. It
	// also matches ErrNoSuites.
	ErrSuitesDirMissing = fmt.Errorf("suites directory missing: %w", ErrNoSuites)
)

// Extensions lists the suite record file extensions picked up from a suites
// directory.
var Extensions = []string{".json", ".yaml", ".yml"}

// Suites returns suite record paths. If explicit paths are provided they are
// validated and returned in the order given. Otherwise every record under dir
// (relative to root) is returned, sorted lexicographically.
func Suites(root, dir string, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return resolveExplicit(root, explicit)
	}

	base := dir
	if !filepath.IsAbs(base) {
		base = filepath.Join(root, dir)
	}
	info, err := os.Stat(base)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%q: %w", dir, ErrSuitesDirMissing)
		}
		return nil, fmt.Errorf("stat suites directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("suites directory %q is not a directory", dir)
	}

	matches := make(map[string]struct{})
	for _, ext := range Extensions {
		pattern := filepath.Join(base, "*"+ext)
		found, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range found {
			matches[m] = struct{}{}
		}
	}

	if len(matches) == 0 {
		return nil, ErrNoSuites
	}

	paths := make([]string, 0, len(matches))
	for p := range matches {
		paths = append(paths, mustRelOrClean(root, p))
	}
	sort.Strings(paths)

	return paths, nil
}

func resolveExplicit(root string, explicit []string) ([]string, error) {
	seen := make(map[string]struct{})
	resolved := make([]string, 0, len(explicit))
	for _, input := range explicit {
		cleaned := input
		if !filepath.IsAbs(cleaned) {
			cleaned = filepath.Join(root, cleaned)
		}
		info, err := os.Stat(cleaned)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("suite file %q not found", input)
			}
			return nil, fmt.Errorf("stat %q: %w", input, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("suite file %q is a directory", input)
		}
		rel := mustRelOrClean(root, cleaned)
		if _, ok := seen[rel]; ok {
			continue
		}
		seen[rel] = struct{}{}
		resolved = append(resolved, rel)
	}
	if len(resolved) == 0 {
		return nil, ErrNoSuites
	}
	return resolved, nil
}

func mustRelOrClean(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Clean(path)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return rel
}
