package config

import (
	"os"
	"path/filepath"
)

// Paths are the output directories, all under the repository root. The
// generator itself never touches them; only callers that persist output do.
type Paths struct {
	Root       string
	DataDir    string
	ReportsDir string
	FiguresDir string
}

// NewPaths derives the standard directory layout from root.
func NewPaths(root string) Paths {
	reports := filepath.Join(root, "reports")
	return Paths{
		Root:       root,
		DataDir:    filepath.Join(root, "data"),
		ReportsDir: reports,
		FiguresDir: filepath.Join(reports, "figures"),
	}
}

// FindRoot walks up from start to the nearest directory holding a go.mod.
// It returns start unchanged when there is none.
func FindRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return start
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// DefaultPaths roots the layout at the repository containing the working directory.
func DefaultPaths() (Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return Paths{}, err
	}
	return NewPaths(FindRoot(wd)), nil
}

// EnsureDir creates path and any missing parents.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
