// Package sdfgen computes three dimensional signed distance fields from
// closed, oriented triangle meshes sampled over uniform axis-aligned grids.
//
// The entry point is [MakeLevelSet3]. Distances are exact for every grid
// cell within a configurable band of cells around each triangle and are
// propagated outward by fast sweeping; inside/outside signs are recovered
// from ray crossing parity, so the input mesh should be closed and
// consistently oriented for meaningful signs. Triangle soups still produce
// correct unsigned distances.
package sdfgen

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/soypat/geometry/ms3"

	"github.com/meet-radek/SDFGenFast/grid"
)

// Errors reported by [MakeLevelSet3] before any computation begins.
var (
	ErrInvalidGridDimensions = errors.New("sdfgen: grid dimensions must be positive and dx > 0")
	ErrEmptyMesh             = errors.New("sdfgen: mesh has no vertices or no triangles")
	ErrBadTriangleIndex      = errors.New("sdfgen: triangle index out of range")
	ErrBackendUnavailable    = errors.New("sdfgen: requested backend is not available")
)

// Backend selects the hardware used to build the level set.
type Backend uint8

const (
	// BackendAuto resolves to BackendGPU when a usable device is present,
	// else BackendCPU. Resolution happens inside MakeLevelSet3.
	BackendAuto Backend = iota
	BackendCPU
	BackendGPU
)

func (b Backend) String() string {
	switch b {
	case BackendAuto:
		return "auto"
	case BackendCPU:
		return "cpu"
	case BackendGPU:
		return "gpu"
	}
	return fmt.Sprintf("backend(%d)", uint8(b))
}

// Options configure MakeLevelSet3 beyond its required arguments.
// The zero value is not the default; use DefaultOptions as a base.
type Options struct {
	// ExactBand is the width in cells of the band around each triangle
	// where exact point-triangle distances are computed. Must be >= 0.
	ExactBand int
	// Backend selects CPU, GPU or automatic hardware dispatch.
	Backend Backend
	// NumThreads is the CPU worker count. 0 picks the number of logical CPUs.
	NumThreads int
}

// DefaultOptions returns the options used when MakeLevelSet3 receives nil:
// a one cell exact band, automatic backend resolution and automatic
// thread count.
func DefaultOptions() Options {
	return Options{ExactBand: 1, Backend: BackendAuto, NumThreads: 0}
}

// lastBackend records the backend used by the most recent MakeLevelSet3
// call, for diagnostics only.
var lastBackend atomic.Uint32

// ActiveBackend returns the backend used by the most recent successful
// MakeLevelSet3 call. Before any call it returns BackendAuto.
func ActiveBackend() Backend {
	return Backend(lastBackend.Load())
}

// MakeLevelSet3 fills phi with the signed distance field of the mesh
// described by tris and verts, sampled at origin + dx*(i,j,k) over a
// ni x nj x nk grid. phi is resized to the grid dimensions; negative values
// are inside the mesh, positive outside. opts may be nil for
// [DefaultOptions].
//
// The call is synchronous and either populates phi completely or returns
// an error without partial results.
func MakeLevelSet3(tris [][3]uint32, verts []ms3.Vec, origin ms3.Vec, dx float32, ni, nj, nk int, phi *grid.Dense[float32], opts *Options) error {
	if opts == nil {
		def := DefaultOptions()
		opts = &def
	}
	if ni <= 0 || nj <= 0 || nk <= 0 || dx <= 0 {
		return fmt.Errorf("%w: got %dx%dx%d, dx=%g", ErrInvalidGridDimensions, ni, nj, nk, dx)
	}
	if len(verts) == 0 || len(tris) == 0 {
		return fmt.Errorf("%w: %d vertices, %d triangles", ErrEmptyMesh, len(verts), len(tris))
	}
	if opts.ExactBand < 0 {
		return fmt.Errorf("sdfgen: negative exact band %d", opts.ExactBand)
	}
	nv := uint32(len(verts))
	for t, tri := range tris {
		if tri[0] >= nv || tri[1] >= nv || tri[2] >= nv {
			return fmt.Errorf("%w: triangle %d references (%d,%d,%d) with %d vertices", ErrBadTriangleIndex, t, tri[0], tri[1], tri[2], nv)
		}
	}

	backend := opts.Backend
	if backend == BackendAuto {
		if IsGPUAvailable() {
			backend = BackendGPU
		} else {
			backend = BackendCPU
		}
		Logger().Debug("resolved auto backend", "backend", backend.String())
	}
	switch backend {
	case BackendCPU:
		makeLevelSetCPU(tris, verts, origin, dx, ni, nj, nk, phi, opts.ExactBand, opts.NumThreads)
	case BackendGPU:
		err := makeLevelSetGPU(tris, verts, origin, dx, ni, nj, nk, phi)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("sdfgen: unknown backend %d", backend)
	}
	lastBackend.Store(uint32(backend))
	return nil
}

// MeshBounds returns the axis-aligned bounding box of verts. Useful for
// sizing grids before calling MakeLevelSet3.
func MeshBounds(verts []ms3.Vec) ms3.Box {
	if len(verts) == 0 {
		return ms3.Box{}
	}
	bb := ms3.Box{Min: verts[0], Max: verts[0]}
	for _, v := range verts[1:] {
		bb.Min = ms3.MinElem(bb.Min, v)
		bb.Max = ms3.MaxElem(bb.Max, v)
	}
	return bb
}
