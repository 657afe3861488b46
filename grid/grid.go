// Package grid provides a dense 3D array container with row-major
// linearization, used to store distance fields and per-cell bookkeeping
// during level set construction.
package grid

// Dense is a dense three dimensional array of T. Elements are stored
// row-major with i varying fastest and k slowest, so the element at
// (i, j, k) lives at Data[i + Ni*(j + Nj*k)].
type Dense[T any] struct {
	Ni, Nj, Nk int
	Data       []T
}

// New allocates a Dense of the given dimensions with zero valued elements.
func New[T any](ni, nj, nk int) *Dense[T] {
	g := &Dense[T]{}
	g.Resize(ni, nj, nk)
	return g
}

// Resize sets the grid dimensions, reallocating backing storage when the
// existing capacity does not suffice. Element values after a Resize are
// unspecified; call Fill to initialize them.
func (g *Dense[T]) Resize(ni, nj, nk int) {
	if ni < 0 || nj < 0 || nk < 0 {
		panic("grid: negative dimension")
	}
	n := ni * nj * nk
	if cap(g.Data) < n {
		g.Data = make([]T, n)
	}
	g.Data = g.Data[:n]
	g.Ni, g.Nj, g.Nk = ni, nj, nk
}

// Idx returns the linear index of element (i, j, k).
func (g *Dense[T]) Idx(i, j, k int) int {
	return i + g.Ni*(j+g.Nj*k)
}

// At returns the element at (i, j, k).
func (g *Dense[T]) At(i, j, k int) T {
	return g.Data[i+g.Ni*(j+g.Nj*k)]
}

// Set stores v at (i, j, k).
func (g *Dense[T]) Set(i, j, k int, v T) {
	g.Data[i+g.Ni*(j+g.Nj*k)] = v
}

// Fill sets every element to v.
func (g *Dense[T]) Fill(v T) {
	for n := range g.Data {
		g.Data[n] = v
	}
}

// Len returns the total number of elements, Ni*Nj*Nk.
func (g *Dense[T]) Len() int { return len(g.Data) }
