// Package sdfio reads and writes the binary SDF container: a 36 byte
// little-endian header of grid dimensions and world bounds followed by the
// raw float32 distance values.
//
// Layout:
//
//	offset  0: ni, nj, nk as three int32
//	offset 12: min.x, min.y, min.z as three float32
//	offset 24: max.x, max.y, max.z as three float32, max = min + dx*dims
//	offset 36: 4*ni*nj*nk bytes of float32 distances, k varying fastest
//
// The payload loop order is i outermost, k innermost, so the value of cell
// (i, j, k) sits at byte offset 36 + 4*(k + nk*(j + nj*i)).
package sdfio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"

	"github.com/meet-radek/SDFGenFast/grid"
)

const headerSize = 36

// Write serializes phi with its world-space bounds to w and returns the
// number of negative (inside) cells, a cheap statistic for reporting.
func Write(w io.Writer, phi *grid.Dense[float32], minBox ms3.Vec, dx float32) (insideCount int, err error) {
	ni, nj, nk := phi.Ni, phi.Nj, phi.Nk
	buf := make([]byte, headerSize+4*phi.Len())
	binary.LittleEndian.PutUint32(buf[0:], uint32(int32(ni)))
	binary.LittleEndian.PutUint32(buf[4:], uint32(int32(nj)))
	binary.LittleEndian.PutUint32(buf[8:], uint32(int32(nk)))
	binary.LittleEndian.PutUint32(buf[12:], math32.Float32bits(minBox.X))
	binary.LittleEndian.PutUint32(buf[16:], math32.Float32bits(minBox.Y))
	binary.LittleEndian.PutUint32(buf[20:], math32.Float32bits(minBox.Z))
	binary.LittleEndian.PutUint32(buf[24:], math32.Float32bits(minBox.X+float32(ni)*dx))
	binary.LittleEndian.PutUint32(buf[28:], math32.Float32bits(minBox.Y+float32(nj)*dx))
	binary.LittleEndian.PutUint32(buf[32:], math32.Float32bits(minBox.Z+float32(nk)*dx))
	off := headerSize
	for i := 0; i < ni; i++ {
		for j := 0; j < nj; j++ {
			for k := 0; k < nk; k++ {
				v := phi.At(i, j, k)
				if v < 0 {
					insideCount++
				}
				binary.LittleEndian.PutUint32(buf[off:], math32.Float32bits(v))
				off += 4
			}
		}
	}
	_, err = w.Write(buf)
	return insideCount, err
}

// Read deserializes an SDF container, restoring the grid and its world
// bounds. Truncated or dimensionally invalid data is an error.
func Read(r io.Reader) (phi *grid.Dense[float32], minBox, maxBox ms3.Vec, err error) {
	var header [headerSize]byte
	if _, err = io.ReadFull(r, header[:]); err != nil {
		return nil, minBox, maxBox, fmt.Errorf("sdfio: reading header: %w", err)
	}
	ni := int(int32(binary.LittleEndian.Uint32(header[0:])))
	nj := int(int32(binary.LittleEndian.Uint32(header[4:])))
	nk := int(int32(binary.LittleEndian.Uint32(header[8:])))
	if ni <= 0 || nj <= 0 || nk <= 0 {
		return nil, minBox, maxBox, fmt.Errorf("sdfio: invalid dimensions %dx%dx%d", ni, nj, nk)
	}
	minBox = ms3.Vec{
		X: math32.Float32frombits(binary.LittleEndian.Uint32(header[12:])),
		Y: math32.Float32frombits(binary.LittleEndian.Uint32(header[16:])),
		Z: math32.Float32frombits(binary.LittleEndian.Uint32(header[20:])),
	}
	maxBox = ms3.Vec{
		X: math32.Float32frombits(binary.LittleEndian.Uint32(header[24:])),
		Y: math32.Float32frombits(binary.LittleEndian.Uint32(header[28:])),
		Z: math32.Float32frombits(binary.LittleEndian.Uint32(header[32:])),
	}
	payload := make([]byte, 4*ni*nj*nk)
	if _, err = io.ReadFull(r, payload); err != nil {
		return nil, minBox, maxBox, fmt.Errorf("sdfio: reading %dx%dx%d payload: %w", ni, nj, nk, err)
	}
	phi = grid.New[float32](ni, nj, nk)
	off := 0
	for i := 0; i < ni; i++ {
		for j := 0; j < nj; j++ {
			for k := 0; k < nk; k++ {
				phi.Set(i, j, k, math32.Float32frombits(binary.LittleEndian.Uint32(payload[off:])))
				off += 4
			}
		}
	}
	return phi, minBox, maxBox, nil
}

// WriteFile writes phi to a new file with Write.
func WriteFile(filename string, phi *grid.Dense[float32], minBox ms3.Vec, dx float32) (insideCount int, err error) {
	fp, err := os.Create(filename)
	if err != nil {
		return 0, err
	}
	defer fp.Close()
	insideCount, err = Write(fp, phi, minBox, dx)
	if err != nil {
		return insideCount, err
	}
	return insideCount, fp.Sync()
}

// ReadFile reads an SDF container from a file with Read.
func ReadFile(filename string) (phi *grid.Dense[float32], minBox, maxBox ms3.Vec, err error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, minBox, maxBox, err
	}
	defer fp.Close()
	return Read(fp)
}
