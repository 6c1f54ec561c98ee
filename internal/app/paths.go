package app

import (
	"os"
	"path/filepath"
)

// Paths holds all resolved filesystem paths for the .svdprobe/ directory.
type Paths struct {
	Root   string // .svdprobe/
	Ledger string // .svdprobe/ledger.db

	LogDir  string // .svdprobe/log/
	LastRun string // .svdprobe/log/last-run.log

	LibDir string // lib/ next to .svdprobe/, searched first for LAPACKE
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, ".svdprobe")
	return &Paths{
		Root:   root,
		Ledger: filepath.Join(root, "ledger.db"),

		LogDir:  filepath.Join(root, "log"),
		LastRun: filepath.Join(root, "log", "last-run.log"),

		LibDir: filepath.Join(projectRoot, "lib"),
	}
}

// EnsureDirs creates all subdirectories under .svdprobe/. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.LogDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}
