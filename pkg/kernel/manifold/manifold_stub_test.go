//go:build !manifold

package manifold

import (
	"errors"
	"testing"

	"github.com/chazu/facet/pkg/kernel"
)

func TestNewReturnsError(t *testing.T) {
	k, err := New()
	if err == nil {
		t.Fatal("New() error = nil, want non-nil error when manifold tag is not set")
	}
	if k != nil {
		t.Fatal("New() returned non-nil kernel, want nil when manifold tag is not set")
	}
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, kernel.ErrUnsupported) {
		t.Errorf("New() error = %v, want ErrUnavailable wrapping kernel.ErrUnsupported", err)
	}
}
