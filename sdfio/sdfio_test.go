package sdfio

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meet-radek/SDFGenFast/grid"
)

func testGrid() *grid.Dense[float32] {
	g := grid.New[float32](3, 4, 5)
	for k := 0; k < 5; k++ {
		for j := 0; j < 4; j++ {
			for i := 0; i < 3; i++ {
				g.Set(i, j, k, float32(i)+10*float32(j)+100*float32(k)-75.5)
			}
		}
	}
	return g
}

func TestWriteLayout(t *testing.T) {
	g := testGrid()
	minBox := ms3.Vec{X: -1, Y: -2, Z: -3}
	const dx = 0.25
	var buf bytes.Buffer
	inside, err := Write(&buf, g, minBox, dx)
	require.NoError(t, err)
	data := buf.Bytes()
	require.Len(t, data, 36+4*g.Len())

	assert.Equal(t, int32(3), int32(binary.LittleEndian.Uint32(data[0:])))
	assert.Equal(t, int32(4), int32(binary.LittleEndian.Uint32(data[4:])))
	assert.Equal(t, int32(5), int32(binary.LittleEndian.Uint32(data[8:])))
	assert.Equal(t, float32(-1), math32.Float32frombits(binary.LittleEndian.Uint32(data[12:])))
	assert.Equal(t, minBox.X+3*dx, math32.Float32frombits(binary.LittleEndian.Uint32(data[24:])))
	assert.Equal(t, minBox.Z+5*dx, math32.Float32frombits(binary.LittleEndian.Uint32(data[32:])))

	// Cell (i,j,k) sits at byte 36 + 4*(k + nk*(j + nj*i)).
	for _, cell := range [][3]int{{0, 0, 0}, {2, 3, 4}, {1, 2, 3}} {
		i, j, k := cell[0], cell[1], cell[2]
		off := 36 + 4*(k+5*(j+4*i))
		got := math32.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
		assert.Equal(t, g.At(i, j, k), got, "cell (%d,%d,%d)", i, j, k)
	}

	wantInside := 0
	for _, v := range g.Data {
		if v < 0 {
			wantInside++
		}
	}
	assert.Equal(t, wantInside, inside)
}

func TestRoundTrip(t *testing.T) {
	g := testGrid()
	minBox := ms3.Vec{X: -1, Y: -2, Z: -3}
	const dx = 0.25
	var buf bytes.Buffer
	_, err := Write(&buf, g, minBox, dx)
	require.NoError(t, err)

	back, gotMin, gotMax, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, [3]int{3, 4, 5}, [3]int{back.Ni, back.Nj, back.Nk})
	assert.Equal(t, minBox, gotMin)
	assert.Equal(t, ms3.Vec{X: minBox.X + 3*dx, Y: minBox.Y + 4*dx, Z: minBox.Z + 5*dx}, gotMax)
	for n := range g.Data {
		if math32.Float32bits(back.Data[n]) != math32.Float32bits(g.Data[n]) {
			t.Fatalf("cell %d: %v != %v", n, back.Data[n], g.Data[n])
		}
	}
}

func TestFileRoundTrip(t *testing.T) {
	g := testGrid()
	name := filepath.Join(t.TempDir(), "field.sdf")
	_, err := WriteFile(name, g, ms3.Vec{}, 1)
	require.NoError(t, err)
	back, _, _, err := ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, g.Data, back.Data)
}

func TestReadErrors(t *testing.T) {
	g := testGrid()
	var buf bytes.Buffer
	_, err := Write(&buf, g, ms3.Vec{}, 1)
	require.NoError(t, err)
	data := buf.Bytes()

	// Truncated payload.
	_, _, _, err = Read(bytes.NewReader(data[:len(data)-8]))
	assert.Error(t, err)

	// Truncated header.
	_, _, _, err = Read(bytes.NewReader(data[:20]))
	assert.Error(t, err)

	// Corrupt dimensions.
	bad := append([]byte{}, data...)
	binary.LittleEndian.PutUint32(bad[0:], 0)
	_, _, _, err = Read(bytes.NewReader(bad))
	assert.Error(t, err)
}
