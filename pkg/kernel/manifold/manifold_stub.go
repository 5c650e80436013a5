//go:build !manifold

package manifold

import "github.com/chazu/facet/pkg/kernel"

// New returns ErrUnavailable. Build with -tags=manifold to link
// libmanifoldc.
func New() (kernel.Kernel, error) {
	return nil, ErrUnavailable
}
