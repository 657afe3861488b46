// Command sdfgen converts closed oriented triangle meshes into grid-based
// signed distance fields stored in the binary SDF container format.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/soypat/geometry/ms3"

	sdfgen "github.com/meet-radek/SDFGenFast"
	"github.com/meet-radek/SDFGenFast/grid"
	"github.com/meet-radek/SDFGenFast/meshio"
	"github.com/meet-radek/SDFGenFast/sdfio"
)

const usage = `SDFGen - A utility for converting closed oriented triangle meshes into grid-based signed distance fields.

=== Mode 1: Legacy OBJ with dx spacing ===
Usage: sdfgen <file.obj> <dx> <padding> [threads]

  <file.obj>  Wavefront OBJ file (text format)
  <dx>        Grid cell size (determines resolution automatically)
  <padding>   Number of padding cells around mesh (minimum 1)
  [threads]   Optional: number of CPU threads (0=auto, default: 0)

=== Mode 2a: STL with proportional dimensions (recommended) ===
Usage: sdfgen <file.stl> <Nx> [padding] [threads]

  <file.stl>  Binary or ASCII STL file
  <Nx>        Grid size in X dimension (Ny, Nz calculated proportionally)
  [padding]   Optional padding cells (default: 1)
  [threads]   Optional: number of CPU threads (0=auto, default: 0)

=== Mode 2b: STL with manual dimensions ===
Usage: sdfgen <file.stl> <Nx> <Ny> <Nz> [padding] [threads]

  Note: with exactly three numbers after the file, the second is read as
  padding when it is below 20, else as Ny of this mode.

Output: binary SDF file with 36-byte header + float32 grid data.
Header: 3 ints (Nx,Ny,Nz) + 6 floats (bounds_min, bounds_max).

GPU acceleration is used automatically when a capable device is present.
`

func main() {
	if os.Getenv("SDFGEN_DEBUG") != "" {
		sdfgen.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "sdfgen:", err)
		fmt.Fprint(os.Stderr, "\n"+usage)
		os.Exit(1)
	}
	if err := run(cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "sdfgen:", err)
		os.Exit(1)
	}
}

func run(cfg *cliConfig, out io.Writer) error {
	fmt.Fprintln(out, "========================================")
	fmt.Fprintln(out, "SDFGen - SDF Generation Tool")
	fmt.Fprintln(out, "========================================")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Input:", cfg.input)

	var (
		mesh *meshio.Mesh
		err  error
	)
	if cfg.mode == modeOBJ {
		mesh, err = meshio.LoadOBJ(cfg.input)
	} else {
		mesh, err = meshio.LoadSTL(cfg.input)
	}
	if err != nil {
		return err
	}
	bb := mesh.Bounds()
	sz := bb.Size()
	fmt.Fprintf(out, "Loaded %d vertices and %d faces\n", len(mesh.Vertices), len(mesh.Faces))
	fmt.Fprintf(out, "Mesh size: %g x %g x %g\n", sz.X, sz.Y, sz.Z)

	var (
		origin     ms3.Vec
		dx         float32
		ni, nj, nk int
	)
	switch cfg.mode {
	case modeOBJ:
		fmt.Fprintln(out, "Mode: legacy dx spacing (OBJ)")
		dx = cfg.dx
		origin, ni, nj, nk = sizeGridFromDx(bb, dx, cfg.padding)
	case modeSTLProportional:
		fmt.Fprintln(out, "Mode: proportional dimensions (single parameter)")
		dx, ni, nj, nk = sizeGridProportional(bb, cfg.nx, cfg.padding)
		origin = recenterOrigin(bb, ni, nj, nk, dx)
		fmt.Fprintf(out, "Aspect ratios preserved: Y=%g, Z=%g\n", sz.Y/sz.X, sz.Z/sz.X)
	case modeSTLManual:
		fmt.Fprintln(out, "Mode: manual dimensions (three parameters)")
		ni, nj, nk = cfg.nx, cfg.ny, cfg.nz
		dx = sizeGridManual(bb, ni, nj, nk, cfg.padding)
		origin = recenterOrigin(bb, ni, nj, nk, dx)
	}
	fmt.Fprintf(out, "Grid spacing (dx): %g\n", dx)
	fmt.Fprintf(out, "Padding: %d cells\n", cfg.padding)
	fmt.Fprintf(out, "Grid dimensions: %d x %d x %d (%d cells)\n", ni, nj, nk, ni*nj*nk)
	if sdfgen.IsGPUAvailable() {
		fmt.Fprintln(out, "Hardware: GPU acceleration available")
	} else {
		fmt.Fprintln(out, "Hardware: CPU (multi-threaded)")
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Computing signed distance field...")

	phi := &grid.Dense[float32]{}
	opts := sdfgen.DefaultOptions()
	opts.NumThreads = cfg.threads
	err = sdfgen.MakeLevelSet3(mesh.Faces, mesh.Vertices, origin, dx, ni, nj, nk, phi, &opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "SDF computation complete using", sdfgen.ActiveBackend(), "backend.")

	outname := outputName(cfg.input, cfg.mode, ni, nj, nk)
	fmt.Fprintln(out, "Writing binary SDF to:", outname)
	inside, err := sdfio.WriteFile(outname, phi, origin, dx)
	if err != nil {
		return err
	}

	total := ni * nj * nk
	fileSize := float64(36+4*total) / (1024 * 1024)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "========================================")
	fmt.Fprintln(out, "Output Summary")
	fmt.Fprintln(out, "========================================")
	fmt.Fprintln(out, "File:", outname)
	fmt.Fprintf(out, "Dimensions: %d x %d x %d\n", ni, nj, nk)
	fmt.Fprintf(out, "Bounds: (%g, %g, %g) to (%g, %g, %g)\n",
		origin.X, origin.Y, origin.Z,
		origin.X+float32(ni)*dx, origin.Y+float32(nj)*dx, origin.Z+float32(nk)*dx)
	fmt.Fprintf(out, "Inside cells: %d / %d (%.2f%%)\n", inside, total, 100*float64(inside)/float64(total))
	fmt.Fprintf(out, "File size: %.2f MB\n", fileSize)
	return nil
}
