// Package lapacke implements ports.Backend on a native LAPACKE shared library
// (OpenBLAS, reference LAPACKE, MKL's LP64 interface) loaded at runtime with
// purego. No cgo is involved: the library is dlopen'ed and the two gesvd
// entry points are bound to Go function values.
package lapacke

import (
	"os"
	"path/filepath"
	"runtime"
)

// EnvLibrary names an explicit library path, overriding the search.
const EnvLibrary = "SVDPROBE_LIBRARY"

// colMajor is LAPACK_COL_MAJOR from lapacke.h.
const colMajor = 102

const (
	symSgesvd = "LAPACKE_sgesvd"
	symDgesvd = "LAPACKE_dgesvd"
)

// LibExtension returns the shared library extension for the current platform.
func LibExtension() string {
	if runtime.GOOS == "darwin" {
		return ".dylib"
	}
	return ".so"
}

// LibraryNames returns the file names tried in each search directory, most
// specific first. OpenBLAS bundles LAPACKE, so either library works.
func LibraryNames() []string {
	ext := LibExtension()
	names := []string{"libopenblas" + ext, "liblapacke" + ext}
	if runtime.GOOS != "darwin" {
		names = append(names, "libopenblas.so.0", "liblapacke.so.3")
	}
	return names
}

// DefaultSearchPaths returns the directories searched for a LAPACKE library.
// A project-local lib/ comes first, then the usual system locations.
func DefaultSearchPaths(projectRoot string) []string {
	var paths []string
	if projectRoot != "" {
		paths = append(paths, filepath.Join(projectRoot, "lib"))
	}
	switch runtime.GOOS {
	case "darwin":
		paths = append(paths, "/opt/homebrew/opt/openblas/lib", "/usr/local/opt/openblas/lib", "/opt/homebrew/lib", "/usr/local/lib")
	default:
		paths = append(paths,
			"/usr/lib/"+runtime.GOARCH+"-linux-gnu",
			"/usr/lib/x86_64-linux-gnu",
			"/usr/lib/aarch64-linux-gnu",
			"/usr/lib64",
			"/usr/lib",
			"/usr/local/lib",
		)
	}
	return paths
}

// Locator finds a LAPACKE library on disk.
type Locator struct {
	searchPaths []string
	names       []string
}

// NewLocator creates a locator searching the given directories in order for
// LibraryNames(). First match wins.
func NewLocator(searchPaths []string) *Locator {
	return &Locator{searchPaths: searchPaths, names: LibraryNames()}
}

// Candidates returns every existing library file in search order. When
// explicit is set (a flag or EnvLibrary) it is the only candidate.
func (l *Locator) Candidates(explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	var out []string
	seen := make(map[string]bool)
	for _, dir := range l.searchPaths {
		for _, name := range l.names {
			candidate := filepath.Join(dir, name)
			if seen[candidate] {
				continue
			}
			if _, err := os.Stat(candidate); err == nil {
				seen[candidate] = true
				out = append(out, candidate)
			}
		}
	}
	return out
}

// SearchPaths returns the configured search paths.
func (l *Locator) SearchPaths() []string {
	return l.searchPaths
}
