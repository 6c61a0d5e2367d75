package embed

import "testing"

func TestPad(t *testing.T) {
	cases := []struct {
		name string
		in   []float32
		dim  int
		want int
	}{
		{"exact", []float32{1, 2, 3}, 3, 3},
		{"short pads with zeros", []float32{1, 2}, 5, 5},
		{"long truncates", []float32{1, 2, 3, 4}, 2, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := Pad(c.in, c.dim)
			if len(out) != c.want {
				t.Fatalf("len = %d, want %d", len(out), c.want)
			}
		})
	}
}

func TestPad_PreservesLeadingValues(t *testing.T) {
	out := Pad([]float32{1, 2}, 4)
	want := []float32{1, 2, 0, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}
