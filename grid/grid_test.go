package grid

import "testing"

func TestLinearization(t *testing.T) {
	g := New[int](3, 4, 5)
	if g.Len() != 60 {
		t.Fatalf("Len = %d, want 60", g.Len())
	}
	want := 0
	// i must vary fastest, k slowest.
	for k := 0; k < 5; k++ {
		for j := 0; j < 4; j++ {
			for i := 0; i < 3; i++ {
				if g.Idx(i, j, k) != want {
					t.Fatalf("Idx(%d,%d,%d) = %d, want %d", i, j, k, g.Idx(i, j, k), want)
				}
				want++
			}
		}
	}
}

func TestAtSetRoundTrip(t *testing.T) {
	g := New[float32](4, 3, 2)
	for k := 0; k < 2; k++ {
		for j := 0; j < 3; j++ {
			for i := 0; i < 4; i++ {
				g.Set(i, j, k, float32(i+10*j+100*k))
			}
		}
	}
	for k := 0; k < 2; k++ {
		for j := 0; j < 3; j++ {
			for i := 0; i < 4; i++ {
				if got := g.At(i, j, k); got != float32(i+10*j+100*k) {
					t.Fatalf("At(%d,%d,%d) = %v", i, j, k, got)
				}
			}
		}
	}
}

func TestResizeReusesBacking(t *testing.T) {
	g := New[int32](10, 10, 10)
	data := &g.Data[0]
	g.Resize(5, 5, 5)
	if g.Len() != 125 || &g.Data[0] != data {
		t.Error("shrinking resize should reuse the backing array")
	}
	g.Resize(20, 20, 20)
	if g.Len() != 8000 {
		t.Errorf("Len after growth = %d", g.Len())
	}
	g.Fill(7)
	for n, v := range g.Data {
		if v != 7 {
			t.Fatalf("Fill missed element %d: %d", n, v)
		}
	}
}
