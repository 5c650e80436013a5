// Package manifold implements kernel.Kernel on the Manifold geometry
// library (https://github.com/elalish/manifold) through its C binding,
// manifoldc. Manifold keeps every result a guaranteed-manifold triangle
// mesh under exact-predicate booleans.
//
// The binding needs libmanifoldc and is only compiled with the manifold
// build tag:
//
//	go build -tags=manifold
//
// Without the tag New reports ErrUnavailable.
package manifold

import (
	"errors"
	"fmt"

	"github.com/chazu/facet/pkg/kernel"
)

// ErrUnavailable is returned by New when the binary was built without
// the manifold tag. It wraps kernel.ErrUnsupported.
var ErrUnavailable = fmt.Errorf("manifold kernel not available, build with -tags=manifold: %w", kernel.ErrUnsupported)

var errStatus = errors.New("manifold status")
