package app

import (
	"fmt"
	"os"

	"github.com/corey/svdprobe/internal/adapters/gonum"
	"github.com/corey/svdprobe/internal/adapters/lapacke"
	"github.com/corey/svdprobe/internal/ports"
)

// Backend names accepted by Options.Backend.
const (
	BackendLAPACKE = "lapacke"
	BackendGonum   = "gonum"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendLAPACKE, BackendGonum}

// OpenBackend resolves opts.Backend. For LAPACKE the library is, in order,
// opts.Library, $SVDPROBE_LIBRARY, or the first loadable file on the search
// path; the resolved path is returned alongside the backend.
func OpenBackend(opts Options) (ports.Backend, string, error) {
	switch opts.Backend {
	case BackendGonum:
		return gonum.New(), "", nil
	case BackendLAPACKE, "":
		explicit := opts.Library
		if explicit == "" {
			explicit = os.Getenv(lapacke.EnvLibrary)
		}
		loc := lapacke.NewLocator(lapacke.DefaultSearchPaths(opts.ProjectRoot))
		lib, err := lapacke.Open(loc.Candidates(explicit))
		if err != nil {
			return nil, "", err
		}
		return lib, lib.Path(), nil
	default:
		return nil, "", fmt.Errorf("unknown backend %q (want %s or %s)", opts.Backend, BackendLAPACKE, BackendGonum)
	}
}
