package meshio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50 // 12 byte normal + 36 bytes of vertices + 2 attribute bytes.
)

// DecodeSTL parses an STL mesh, auto-detecting the format: data starting
// with "solid" is binary only when the total length matches the binary
// layout exactly (80 byte header, uint32 triangle count, 50 bytes per
// triangle), otherwise ASCII. Data without the keyword is always binary.
func DecodeSTL(data []byte) (*Mesh, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("%w: STL shorter than 5 bytes", ErrMeshParse)
	}
	if bytes.HasPrefix(bytes.ToLower(data[:5]), []byte("solid")) {
		// Binary exporters sometimes write "solid" into the header; trust
		// the keyword only when the size does not match binary exactly.
		if len(data) >= stlHeaderSize+4 {
			n := binary.LittleEndian.Uint32(data[stlHeaderSize:])
			if len(data) == stlHeaderSize+4+int(n)*stlTriangleSize {
				return decodeBinarySTL(data)
			}
		}
		return decodeASCIISTL(data)
	}
	return decodeBinarySTL(data)
}

func decodeBinarySTL(data []byte) (*Mesh, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, fmt.Errorf("%w: binary STL truncated before triangle count", ErrMeshParse)
	}
	n := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	body := data[stlHeaderSize+4:]
	if len(body) < int(n)*stlTriangleSize {
		return nil, fmt.Errorf("%w: binary STL truncated: %d triangles declared, %d bytes of payload", ErrMeshParse, n, len(body))
	}
	m := &Mesh{
		Vertices: make([]ms3.Vec, 0, 3*n),
		Faces:    make([][3]uint32, 0, n),
	}
	for t := uint32(0); t < n; t++ {
		rec := body[t*stlTriangleSize:]
		base := uint32(len(m.Vertices))
		for v := 0; v < 3; v++ {
			off := 12 + 12*v // Skip the 12 byte normal; it is not used.
			m.Vertices = append(m.Vertices, ms3.Vec{
				X: math32.Float32frombits(binary.LittleEndian.Uint32(rec[off:])),
				Y: math32.Float32frombits(binary.LittleEndian.Uint32(rec[off+4:])),
				Z: math32.Float32frombits(binary.LittleEndian.Uint32(rec[off+8:])),
			})
		}
		m.Faces = append(m.Faces, [3]uint32{base, base + 1, base + 2})
	}
	if len(m.Faces) == 0 {
		return nil, fmt.Errorf("%w: binary STL with zero triangles", ErrMeshParse)
	}
	return m, nil
}

func decodeASCIISTL(data []byte) (*Mesh, error) {
	m := &Mesh{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 256), 1<<20)
	var (
		inSolid, inFacet, inLoop bool

		vertexInFacet int
		facetStart    uint32
		lineno        int
	)
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "solid"):
			inSolid = true
		case strings.HasPrefix(lower, "endsolid"):
			inSolid = false
		case strings.HasPrefix(lower, "facet"):
			if !inSolid {
				return nil, fmt.Errorf("%w: line %d: facet outside solid", ErrMeshParse, lineno)
			}
			inFacet = true
			vertexInFacet = 0
			facetStart = uint32(len(m.Vertices))
		case strings.HasPrefix(lower, "endfacet"):
			if vertexInFacet != 3 {
				return nil, fmt.Errorf("%w: line %d: facet with %d vertices", ErrMeshParse, lineno, vertexInFacet)
			}
			inFacet = false
			m.Faces = append(m.Faces, [3]uint32{facetStart, facetStart + 1, facetStart + 2})
		case strings.HasPrefix(lower, "outer loop"):
			inLoop = true
		case strings.HasPrefix(lower, "endloop"):
			inLoop = false
		case strings.HasPrefix(lower, "vertex"):
			if !inFacet || !inLoop {
				return nil, fmt.Errorf("%w: line %d: vertex outside facet loop", ErrMeshParse, lineno)
			}
			fields := strings.Fields(line)
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: bad vertex %q", ErrMeshParse, lineno, line)
			}
			x, errx := strconv.ParseFloat(fields[1], 32)
			y, erry := strconv.ParseFloat(fields[2], 32)
			z, errz := strconv.ParseFloat(fields[3], 32)
			if errx != nil || erry != nil || errz != nil {
				return nil, fmt.Errorf("%w: line %d: bad vertex %q", ErrMeshParse, lineno, line)
			}
			m.Vertices = append(m.Vertices, ms3.Vec{X: float32(x), Y: float32(y), Z: float32(z)})
			vertexInFacet++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(m.Vertices) == 0 || len(m.Faces) == 0 {
		return nil, fmt.Errorf("%w: ASCII STL with no facets", ErrMeshParse)
	}
	return m, nil
}

// LoadSTL reads an STL mesh from a file, auto-detecting ASCII vs binary.
func LoadSTL(filename string) (*Mesh, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	m, err := DecodeSTL(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return m, nil
}
