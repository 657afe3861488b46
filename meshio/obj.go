package meshio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/soypat/geometry/ms3"
)

// ReadOBJ parses a Wavefront OBJ mesh. Only `v` and `f` records are
// interpreted: positions keep their first three numeric tokens and faces
// keep the leading vertex index of each `index/texture/normal` token.
// Faces with more than three vertices are fan triangulated from the first
// vertex. Normal, texture, comment and unrecognized records are skipped.
func ReadOBJ(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 256), 1<<20)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: vertex with %d coordinates", ErrMeshParse, lineno, len(fields)-1)
			}
			x, errx := strconv.ParseFloat(fields[1], 32)
			y, erry := strconv.ParseFloat(fields[2], 32)
			z, errz := strconv.ParseFloat(fields[3], 32)
			if errx != nil || erry != nil || errz != nil {
				return nil, fmt.Errorf("%w: line %d: bad vertex %q", ErrMeshParse, lineno, line)
			}
			m.Vertices = append(m.Vertices, ms3.Vec{X: float32(x), Y: float32(y), Z: float32(z)})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: face with %d vertices", ErrMeshParse, lineno, len(fields)-1)
			}
			idx := make([]uint32, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				v, err := parseFaceIndex(tok, len(m.Vertices))
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %s", ErrMeshParse, lineno, err)
				}
				idx = append(idx, v)
			}
			// Fan triangulation from the first vertex.
			for i := 1; i+1 < len(idx); i++ {
				m.Faces = append(m.Faces, [3]uint32{idx[0], idx[i], idx[i+1]})
			}
		default:
			// vn, vt, g, o, mtllib, usemtl and friends.
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(m.Vertices) == 0 {
		return nil, fmt.Errorf("%w: no vertices", ErrMeshParse)
	}
	if len(m.Faces) == 0 {
		return nil, fmt.Errorf("%w: no faces", ErrMeshParse)
	}
	return m, nil
}

// parseFaceIndex resolves one face token to a zero-based vertex index.
// OBJ indices are 1-based; negative values count back from the most
// recently read vertex.
func parseFaceIndex(tok string, nverts int) (uint32, error) {
	if slash := strings.IndexByte(tok, '/'); slash >= 0 {
		tok = tok[:slash]
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("bad face index %q", tok)
	}
	if v < 0 {
		v += nverts
	} else {
		v--
	}
	if v < 0 || v >= nverts {
		return 0, fmt.Errorf("face index %q out of range with %d vertices", tok, nverts)
	}
	return uint32(v), nil
}

// LoadOBJ reads an OBJ mesh from a file.
func LoadOBJ(filename string) (*Mesh, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	m, err := ReadOBJ(bufio.NewReader(fp))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return m, nil
}
