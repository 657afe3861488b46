package sdfgen

import (
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"

	"github.com/meet-radek/SDFGenFast/grid"
)

// noTriangle marks cells whose closest triangle is not yet known.
const noTriangle int32 = -1

// levelSet bundles the mesh, grid descriptor and working grids of one
// level set build. Workers of the parallel triangle scan hold their own
// levelSet with private grids over the same mesh.
type levelSet struct {
	tris       [][3]uint32
	verts      []ms3.Vec
	origin     ms3.Vec
	dx         float32
	ni, nj, nk int

	phi     *grid.Dense[float32]
	closest *grid.Dense[int32]
	counts  *grid.Dense[int32]
}

func makeLevelSetCPU(tris [][3]uint32, verts []ms3.Vec, origin ms3.Vec, dx float32, ni, nj, nk int, phi *grid.Dense[float32], exactBand, numThreads int) {
	start := time.Now()
	// Upper bound on any distance representable inside the grid. Cells
	// keep it until a real distance is found.
	upper := float32(ni+nj+nk) * dx
	phi.Resize(ni, nj, nk)
	phi.Fill(upper)

	ls := &levelSet{
		tris: tris, verts: verts,
		origin: origin, dx: dx,
		ni: ni, nj: nj, nk: nk,
		phi:     phi,
		closest: grid.New[int32](ni, nj, nk),
		counts:  grid.New[int32](ni, nj, nk),
	}
	ls.closest.Fill(noTriangle)

	nw := numThreads
	if nw <= 0 {
		nw = runtime.NumCPU()
	}
	if nw < 1 {
		nw = 1
	}
	if nw > len(tris) {
		nw = len(tris)
	}

	if nw == 1 {
		ls.scanTriangles(0, len(tris), exactBand)
	} else {
		// Each worker scans a contiguous triangle chunk into private
		// grids; only the ordered reduction below touches shared state.
		workers := make([]*levelSet, nw)
		chunk := (len(tris) + nw - 1) / nw
		var wg sync.WaitGroup
		for w := 0; w < nw; w++ {
			lo := w * chunk
			hi := lo + chunk
			if hi > len(tris) {
				hi = len(tris)
			}
			wls := &levelSet{
				tris: tris, verts: verts,
				origin: origin, dx: dx,
				ni: ni, nj: nj, nk: nk,
				phi:     grid.New[float32](ni, nj, nk),
				closest: grid.New[int32](ni, nj, nk),
				counts:  grid.New[int32](ni, nj, nk),
			}
			wls.phi.Fill(upper)
			wls.closest.Fill(noTriangle)
			workers[w] = wls
			wg.Add(1)
			go func(lo, hi int) {
				defer wg.Done()
				wls.scanTriangles(lo, hi, exactBand)
			}(lo, hi)
		}
		wg.Wait()
		ls.reduce(workers)
	}
	Logger().Debug("narrow band pass done", "triangles", len(tris), "workers", nw, "elapsed", time.Since(start))

	ls.resolveSigns(nw)

	// Two rounds over the eight sweep orderings cover every characteristic
	// direction on a uniform grid.
	sweepStart := time.Now()
	for pass := 0; pass < 2; pass++ {
		ls.sweep(+1, +1, +1)
		ls.sweep(-1, -1, -1)
		ls.sweep(+1, +1, -1)
		ls.sweep(-1, -1, +1)
		ls.sweep(+1, -1, +1)
		ls.sweep(-1, +1, -1)
		ls.sweep(+1, -1, -1)
		ls.sweep(-1, +1, +1)
	}
	Logger().Debug("sweeping done", "elapsed", time.Since(sweepStart))
}

// pos returns the world position of sample (i, j, k).
func (ls *levelSet) pos(i, j, k int) ms3.Vec {
	return ms3.Add(ls.origin, ms3.Scale(ls.dx, ms3.Vec{X: float32(i), Y: float32(j), Z: float32(k)}))
}

// scanTriangles runs the narrow band pass for triangles [lo, hi): exact
// point-triangle distances within exactBand cells of each triangle's box,
// and ray crossing increments for the parity sign recovery.
func (ls *levelSet) scanTriangles(lo, hi, exactBand int) {
	ni, nj, nk := ls.ni, ls.nj, ls.nk
	invdx := 1 / ls.dx
	for t := lo; t < hi; t++ {
		tri := ls.tris[t]
		p := ls.verts[tri[0]]
		q := ls.verts[tri[1]]
		r := ls.verts[tri[2]]
		// Triangle vertices in fractional grid coordinates.
		fp := ms3.Scale(invdx, ms3.Sub(p, ls.origin))
		fq := ms3.Scale(invdx, ms3.Sub(q, ls.origin))
		fr := ms3.Scale(invdx, ms3.Sub(r, ls.origin))

		i0 := clampi(int(math32.Floor(min3(fp.X, fq.X, fr.X)))-exactBand, 0, ni-1)
		i1 := clampi(int(math32.Ceil(max3(fp.X, fq.X, fr.X)))+exactBand+1, 0, ni)
		j0 := clampi(int(math32.Floor(min3(fp.Y, fq.Y, fr.Y)))-exactBand, 0, nj-1)
		j1 := clampi(int(math32.Ceil(max3(fp.Y, fq.Y, fr.Y)))+exactBand+1, 0, nj)
		k0 := clampi(int(math32.Floor(min3(fp.Z, fq.Z, fr.Z)))-exactBand, 0, nk-1)
		k1 := clampi(int(math32.Ceil(max3(fp.Z, fq.Z, fr.Z)))+exactBand+1, 0, nk)
		for k := k0; k < k1; k++ {
			for j := j0; j < j1; j++ {
				for i := i0; i < i1; i++ {
					d := pointTriangleDistance(ls.pos(i, j, k), p, q, r)
					n := ls.phi.Idx(i, j, k)
					if d < ls.phi.Data[n] {
						ls.phi.Data[n] = d
						ls.closest.Data[n] = int32(t)
					}
				}
			}
		}

		// Parity: lattice columns (j, k) covered by the triangle's
		// projection each record one crossing at the column's fractional
		// intersection with the triangle plane.
		j0 = clampi(int(math32.Ceil(min3(fp.Y, fq.Y, fr.Y))), 0, nj-1)
		j1 = clampi(int(math32.Floor(max3(fp.Y, fq.Y, fr.Y))), 0, nj-1)
		k0 = clampi(int(math32.Ceil(min3(fp.Z, fq.Z, fr.Z))), 0, nk-1)
		k1 = clampi(int(math32.Floor(max3(fp.Z, fq.Z, fr.Z))), 0, nk-1)
		for k := k0; k <= k1; k++ {
			for j := j0; j <= j1; j++ {
				a, b, c, inside := pointInTriangle2D(float64(j), float64(k),
					float64(fp.Y), float64(fp.Z), float64(fq.Y), float64(fq.Z), float64(fr.Y), float64(fr.Z))
				if !inside {
					continue
				}
				fi := a*float64(fp.X) + b*float64(fq.X) + c*float64(fr.X)
				iCross := int(math.Ceil(fi))
				if iCross < 0 {
					ls.counts.Data[ls.counts.Idx(0, j, k)]++
				} else if iCross < ni {
					ls.counts.Data[ls.counts.Idx(iCross, j, k)]++
				}
				// Crossings past the +i face never affect in-grid parity.
			}
		}
	}
}

// reduce merges worker grids into ls in worker order. Strict minimum keeps
// the result independent of the worker count: ties always resolve to the
// lowest triangle index.
func (ls *levelSet) reduce(workers []*levelSet) {
	phiD := ls.phi.Data
	closestD := ls.closest.Data
	countsD := ls.counts.Data
	for _, w := range workers {
		wp := w.phi.Data
		wc := w.closest.Data
		wn := w.counts.Data
		for n := range phiD {
			if wp[n] < phiD[n] {
				phiD[n] = wp[n]
				closestD[n] = wc[n]
			}
			countsD[n] += wn[n]
		}
	}
}

// resolveSigns walks every (j, k) column accumulating crossing counts and
// negates phi where the running parity is odd. Columns are independent, so
// the work is split over k slabs.
func (ls *levelSet) resolveSigns(workers int) {
	if workers > ls.nk {
		workers = ls.nk
	}
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		k0 := w * ls.nk / workers
		k1 := (w + 1) * ls.nk / workers
		if k0 == k1 {
			continue
		}
		wg.Add(1)
		go func(k0, k1 int) {
			defer wg.Done()
			for k := k0; k < k1; k++ {
				for j := 0; j < ls.nj; j++ {
					base := ls.phi.Idx(0, j, k)
					total := int32(0)
					for i := 0; i < ls.ni; i++ {
						total += ls.counts.Data[base+i]
						if total&1 == 1 {
							ls.phi.Data[base+i] = -ls.phi.Data[base+i]
						}
					}
				}
			}
		}(k0, k1)
	}
	wg.Wait()
}

// checkNeighbour tightens cell (i0,j0,k0) using the closest triangle of
// neighbour (i1,j1,k1). Only the magnitude changes; the sign recovered
// from parity is preserved.
func (ls *levelSet) checkNeighbour(gx ms3.Vec, i0, j0, k0, i1, j1, k1 int) {
	t := ls.closest.At(i1, j1, k1)
	if t == noTriangle {
		return
	}
	tri := ls.tris[t]
	d := pointTriangleDistance(gx, ls.verts[tri[0]], ls.verts[tri[1]], ls.verts[tri[2]])
	n := ls.phi.Idx(i0, j0, k0)
	p := ls.phi.Data[n]
	if d < math32.Abs(p) {
		ls.phi.Data[n] = math32.Copysign(d, p)
		ls.closest.Data[n] = t
	}
}

// sweep performs one Gauss-Seidel pass in the (di, dj, dk) ordering,
// updating each cell from its seven already-visited neighbours.
func (ls *levelSet) sweep(di, dj, dk int) {
	var i0, i1 int
	if di > 0 {
		i0, i1 = 1, ls.ni
	} else {
		i0, i1 = ls.ni-2, -1
	}
	var j0, j1 int
	if dj > 0 {
		j0, j1 = 1, ls.nj
	} else {
		j0, j1 = ls.nj-2, -1
	}
	var k0, k1 int
	if dk > 0 {
		k0, k1 = 1, ls.nk
	} else {
		k0, k1 = ls.nk-2, -1
	}
	for k := k0; k != k1; k += dk {
		for j := j0; j != j1; j += dj {
			for i := i0; i != i1; i += di {
				gx := ls.pos(i, j, k)
				ls.checkNeighbour(gx, i, j, k, i-di, j, k)
				ls.checkNeighbour(gx, i, j, k, i, j-dj, k)
				ls.checkNeighbour(gx, i, j, k, i-di, j-dj, k)
				ls.checkNeighbour(gx, i, j, k, i, j, k-dk)
				ls.checkNeighbour(gx, i, j, k, i-di, j, k-dk)
				ls.checkNeighbour(gx, i, j, k, i, j-dj, k-dk)
				ls.checkNeighbour(gx, i, j, k, i-di, j-dj, k-dk)
			}
		}
	}
}
