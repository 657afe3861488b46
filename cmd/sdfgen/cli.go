package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

type gridMode int

const (
	// modeOBJ sizes the grid from an explicit cell size.
	modeOBJ gridMode = iota + 1
	// modeSTLProportional derives Ny, Nz from a target Nx preserving the
	// mesh aspect ratio.
	modeSTLProportional
	// modeSTLManual takes all three dimensions and fits dx to them.
	modeSTLManual
)

// cliConfig is the parsed command line, before the mesh is loaded.
type cliConfig struct {
	input      string
	mode       gridMode
	dx         float32 // modeOBJ only
	padding    int
	threads    int
	nx, ny, nz int // target dimensions for the STL modes
}

// parseArgs interprets the positional arguments (excluding the program
// name) following the historical dispatch: OBJ files take
// `dx padding [threads]`, STL files take `Nx [padding] [threads]` or
// `Nx Ny Nz [padding] [threads]`. With exactly three numeric arguments
// after an STL file the second is read as padding when it is below 20,
// else as Ny of the manual mode.
func parseArgs(args []string) (*cliConfig, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no input file")
	}
	cfg := &cliConfig{input: args[0], padding: 1}
	isSTL := strings.EqualFold(filepath.Ext(cfg.input), ".stl")
	if isSTL && len(args) >= 2 {
		rest := args[1:]
		secondSmall := false
		if len(rest) == 3 {
			v, err := strconv.Atoi(rest[1])
			secondSmall = err == nil && v < 20
		}
		if len(rest) <= 2 || secondSmall {
			cfg.mode = modeSTLProportional
			if len(rest) > 3 {
				return nil, fmt.Errorf("too many arguments for proportional STL mode")
			}
			var err error
			if cfg.nx, err = strconv.Atoi(rest[0]); err != nil || cfg.nx <= 0 {
				return nil, fmt.Errorf("grid dimension must be a positive integer, got %q", rest[0])
			}
			if len(rest) >= 2 {
				if cfg.padding, err = strconv.Atoi(rest[1]); err != nil {
					return nil, fmt.Errorf("bad padding %q", rest[1])
				}
			}
			if len(rest) == 3 {
				if cfg.threads, err = strconv.Atoi(rest[2]); err != nil {
					return nil, fmt.Errorf("bad thread count %q", rest[2])
				}
			}
		} else {
			cfg.mode = modeSTLManual
			if len(rest) < 3 {
				return nil, fmt.Errorf("manual STL mode needs Nx Ny Nz")
			}
			if len(rest) > 5 {
				return nil, fmt.Errorf("too many arguments for manual STL mode")
			}
			dims := [3]int{}
			for n := 0; n < 3; n++ {
				v, err := strconv.Atoi(rest[n])
				if err != nil || v <= 0 {
					return nil, fmt.Errorf("grid dimensions must be positive integers, got %q", rest[n])
				}
				dims[n] = v
			}
			cfg.nx, cfg.ny, cfg.nz = dims[0], dims[1], dims[2]
			var err error
			if len(rest) >= 4 {
				if cfg.padding, err = strconv.Atoi(rest[3]); err != nil {
					return nil, fmt.Errorf("bad padding %q", rest[3])
				}
			}
			if len(rest) == 5 {
				if cfg.threads, err = strconv.Atoi(rest[4]); err != nil {
					return nil, fmt.Errorf("bad thread count %q", rest[4])
				}
			}
		}
	} else {
		cfg.mode = modeOBJ
		if !strings.EqualFold(filepath.Ext(cfg.input), ".obj") {
			return nil, fmt.Errorf("legacy mode requires an OBJ file, got %q", cfg.input)
		}
		if len(args) < 3 {
			return nil, fmt.Errorf("OBJ mode needs dx and padding")
		}
		if len(args) > 4 {
			return nil, fmt.Errorf("too many arguments for OBJ mode")
		}
		dx, err := strconv.ParseFloat(args[1], 32)
		if err != nil || dx <= 0 {
			return nil, fmt.Errorf("grid spacing must be a positive number, got %q", args[1])
		}
		cfg.dx = float32(dx)
		if cfg.padding, err = strconv.Atoi(args[2]); err != nil {
			return nil, fmt.Errorf("bad padding %q", args[2])
		}
		if len(args) == 4 {
			if cfg.threads, err = strconv.Atoi(args[3]); err != nil {
				return nil, fmt.Errorf("bad thread count %q", args[3])
			}
		}
	}
	if cfg.padding < 1 {
		cfg.padding = 1
	}
	return cfg, nil
}

// sizeGridFromDx pads the mesh bounds by padding cells on every side and
// derives grid dimensions from the fixed cell size.
func sizeGridFromDx(bb ms3.Box, dx float32, padding int) (origin ms3.Vec, ni, nj, nk int) {
	pad := float32(padding) * dx
	min := ms3.AddScalar(-pad, bb.Min)
	max := ms3.AddScalar(pad, bb.Max)
	sz := ms3.Scale(1/dx, ms3.Sub(max, min))
	return min, int(sz.X), int(sz.Y), int(sz.Z)
}

// sizeGridProportional fits the mesh X extent into nx minus padding and
// derives ny, nz at the same cell size, preserving the aspect ratio.
func sizeGridProportional(bb ms3.Box, nx, padding int) (dx float32, ni, nj, nk int) {
	sz := bb.Size()
	dx = sz.X / float32(nx-2*padding)
	nj = int(sz.Y/dx+0.5) + 2*padding
	nk = int(sz.Z/dx+0.5) + 2*padding
	return dx, nx, nj, nk
}

// sizeGridManual picks the largest per-axis fit so the mesh fits the
// requested dimensions along every axis.
func sizeGridManual(bb ms3.Box, nx, ny, nz, padding int) (dx float32) {
	sz := bb.Size()
	dxx := sz.X / float32(nx-2*padding)
	dxy := sz.Y / float32(ny-2*padding)
	dxz := sz.Z / float32(nz-2*padding)
	return math32.Max(dxx, math32.Max(dxy, dxz))
}

// recenterOrigin centers the mesh inside a grid of the given dimensions,
// with equal margins on all sides.
func recenterOrigin(bb ms3.Box, ni, nj, nk int, dx float32) ms3.Vec {
	gridSize := ms3.Vec{X: float32(ni) * dx, Y: float32(nj) * dx, Z: float32(nk) * dx}
	center := ms3.Scale(0.5, ms3.Add(bb.Min, bb.Max))
	return ms3.Sub(center, ms3.Scale(0.5, gridSize))
}

// outputName derives the SDF filename: the OBJ mode swaps the extension,
// the STL modes append the grid dimensions to the stem.
func outputName(input string, mode gridMode, ni, nj, nk int) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if mode == modeOBJ {
		return base + ".sdf"
	}
	return base + fmt.Sprintf("_sdf_%dx%dx%d.sdf", ni, nj, nk)
}
