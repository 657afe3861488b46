// Package meshio loads triangle meshes from Wavefront OBJ and STL files
// for level set generation. Faces with more than three vertices are fan
// triangulated; STL files are not vertex-welded, each facet contributes
// three vertices.
package meshio

import (
	"errors"

	"github.com/soypat/geometry/ms3"
)

// ErrMeshParse reports a malformed OBJ or STL file. Errors returned by the
// loaders wrap it together with the offending location.
var ErrMeshParse = errors.New("meshio: malformed mesh file")

// Mesh is an indexed triangle mesh in world coordinates.
type Mesh struct {
	Vertices []ms3.Vec
	// Faces index into Vertices, three indices per triangle.
	Faces [][3]uint32
}

// Bounds returns the axis-aligned bounding box over all vertices.
// The zero box is returned for an empty mesh.
func (m *Mesh) Bounds() ms3.Box {
	if len(m.Vertices) == 0 {
		return ms3.Box{}
	}
	bb := ms3.Box{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		bb.Min = ms3.MinElem(bb.Min, v)
		bb.Max = ms3.MaxElem(bb.Max, v)
	}
	return bb
}
