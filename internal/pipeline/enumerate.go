package pipeline

import (
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/opentip/internal/model"
)

// Enumerate yields every regular file reachable from paths, in input order.
//
// A regular file input yields itself. A directory input is walked
// recursively and top-down, also when the input itself is a symbolic
// link to a directory. Below the input, symbolic links to files are
// yielded, symbolic links to directories are not followed, and each real
// directory is walked at most once. Inputs that do not exist or are neither regular
// files nor directories are skipped silently.
//
// Breaking out of the range loop stops the walk.
func Enumerate(paths []string, logger *slog.Logger) iter.Seq[model.Target] {
	if logger == nil {
		logger = slog.Default()
	}

	return func(yield func(model.Target) bool) {
		visited := make(map[string]struct{})

		for _, p := range paths {
			info, err := os.Stat(p)
			if err != nil {
				logger.Debug("skipping input", "path", p, "error", err)
				continue
			}

			switch {
			case info.IsDir():
				if !walkDir(p, visited, logger, yield) {
					return
				}
			case info.Mode().IsRegular():
				if !yield(model.Target{Path: p}) {
					return
				}
			default:
				logger.Debug("skipping special file", "path", p)
			}
		}
	}
}

// walkDir yields the files under root. It returns false if yield asked
// to stop.
//
// The walk starts from the resolved root, since filepath.WalkDir does not
// descend into a root that is a symbolic link. Yielded paths are rebased
// onto root as given.
func walkDir(root string, visited map[string]struct{}, logger *slog.Logger, yield func(model.Target) bool) bool {
	keepGoing := true

	start, err := filepath.EvalSymlinks(root)
	if err != nil {
		logger.Debug("cannot resolve directory", "path", root, "error", err)
		return true
	}

	_ = filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error { //nolint:errcheck // walk errors are logged per entry
		if err != nil {
			// Unreadable directory: log and carry on with its siblings.
			logger.Debug("cannot read directory", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			key := realDir(path)
			if _, seen := visited[key]; seen {
				return fs.SkipDir
			}
			visited[key] = struct{}{}
			return nil
		}

		switch {
		case d.Type().IsRegular():
		case d.Type()&fs.ModeSymlink != 0:
			info, statErr := os.Stat(path)
			if statErr == nil && !info.Mode().IsRegular() {
				return nil
			}
			// Dangling links are still handed to the task so the
			// read failure is reported.
		default:
			return nil
		}

		if !yield(model.Target{Path: rebase(root, start, path)}) {
			keepGoing = false
			return fs.SkipAll
		}
		return nil
	})

	return keepGoing
}

// rebase rewrites path, found under start, to the same entry under root.
func rebase(root, start, path string) string {
	if root == start {
		return path
	}
	rel, err := filepath.Rel(start, path)
	if err != nil {
		return path
	}
	return filepath.Join(root, rel)
}

func realDir(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	if abs, err := filepath.Abs(resolved); err == nil {
		return abs
	}
	return resolved
}
