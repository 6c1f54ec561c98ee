package ports

// Watcher monitors a shared library file so the probe can re-run after the
// library is rebuilt or reinstalled. Package managers and linkers usually
// replace the file (create + rename) rather than write it in place, so the
// adapter watches the parent directory and filters by name.
type Watcher interface {
	// WatchFile starts monitoring path. onChange is called with the absolute
	// path after each burst of changes settles. The callback may be invoked
	// from any goroutine. Returns an error if the parent directory doesn't
	// exist or permissions are insufficient.
	WatchFile(path string, onChange func(filePath string)) error

	// Stop ends monitoring and releases all resources. After Stop returns,
	// no further onChange calls will fire. Safe to call multiple times.
	Stop() error
}
