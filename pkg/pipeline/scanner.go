package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// ScanOptions controls file discovery for a pass.
type ScanOptions struct {
	// Include patterns (doublestar, relative to the project root). Empty
	// means the default source patterns for the supported languages.
	Include []string
	// Exclude patterns; matching directories are pruned entirely.
	Exclude []string
	// MaxFileSizeBytes skips pathological inputs; 0 means no limit.
	MaxFileSizeBytes int64
}

// DefaultScanOptions returns the patterns a whole-project pass uses:
// every supported source extension, minus the usual build and dependency
// directories.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		Include: []string{
			"**/*.kt", "**/*.kts",
			"**/*.java",
			"**/*.ts", "**/*.tsx", "**/*.mts", "**/*.cts",
			"**/*.js", "**/*.jsx", "**/*.mjs", "**/*.cjs",
		},
		Exclude: []string{
			"**/node_modules/**", "**/.git/**", "**/build/**", "**/dist/**",
			"**/out/**", "**/target/**", "**/.gradle/**", "**/vendor/**",
			"**/*.d.ts", "**/*.min.js",
		},
		MaxFileSizeBytes: 10 * 1024 * 1024,
	}
}

// discoverFiles walks the project tree and returns every file matching the
// include patterns and none of the excludes. Walk errors on individual
// entries are logged and skipped; they never abort discovery. Cancellation
// is checked between entries.
func discoverFiles(ctx context.Context, rootPath string, opts ScanOptions, logger *slog.Logger) ([]string, error) {
	for _, pattern := range opts.Include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("pipeline: invalid include pattern: %s", pattern)
		}
	}
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("pipeline: invalid exclude pattern: %s", pattern)
		}
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Warn("walk error, skipping entry", "path", path, "error", err)
			return nil
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		for _, pattern := range opts.Exclude {
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

		matched := false
		for _, pattern := range opts.Include {
			if m, _ := doublestar.PathMatch(pattern, relPath); m {
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}

		if opts.MaxFileSizeBytes > 0 {
			if info, err := d.Info(); err == nil && info.Size() > opts.MaxFileSizeBytes {
				logger.Warn("skipping oversized file", "path", path, "size", info.Size())
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
