//go:build tinygo || !cgo

package sdfgen

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms3"

	"github.com/meet-radek/SDFGenFast/grid"
)

var errNoCGO = errors.New("GPU level set build requires CGo and is not supported on TinyGo")

// IsGPUAvailable reports whether a usable compute-capable device is
// present. Always false without CGo.
func IsGPUAvailable() bool { return false }

func makeLevelSetGPU(tris [][3]uint32, verts []ms3.Vec, origin ms3.Vec, dx float32, ni, nj, nk int, phi *grid.Dense[float32]) error {
	return fmt.Errorf("%w: %s", ErrBackendUnavailable, errNoCGO)
}
