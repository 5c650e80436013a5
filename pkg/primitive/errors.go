package primitive

import (
	"errors"
	"fmt"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/mesh"
)

// Error taxonomy shared with the kernel and mesh packages, so callers can
// test any failure with errors.Is against one package.
var (
	// ErrKernel marks a failure inside the solid kernel.
	ErrKernel = kernel.ErrKernel
	// ErrConstruction marks a boundary mesh that could not be built.
	ErrConstruction = mesh.ErrConstruction
	// ErrUnsupported marks an operation requested on a shape it cannot
	// act on.
	ErrUnsupported = kernel.ErrUnsupported
)

// OpError records the operation and shape kind a failure happened on.
type OpError struct {
	Op   string
	Kind geom.Kind
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("primitive: %s (%s)", e.Op, e.Kind)
	}
	return fmt.Sprintf("primitive: %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func (p *Primitive) fail(op string, err error) error {
	var oe *OpError
	if errors.As(err, &oe) {
		return err
	}
	return &OpError{Op: op, Kind: p.kind, Err: err}
}

func (p *Primitive) unsupported(op, why string) error {
	return &OpError{Op: op, Kind: p.kind, Err: fmt.Errorf("%w: %s", ErrUnsupported, why)}
}
