package ctrl

import (
	"path/filepath"
	"testing"

	"github.com/margaretmurakami/ecco-2024/internal/mds"
)

func TestReadPerturbationAndDelta(t *testing.T) {
	dir := t.TempDir()

	a := filepath.Join(dir, "xx_theta.0000000000")
	b := filepath.Join(dir, "xx_theta.0000000002")
	if err := mds.WriteField(a, []int{2, 2}, mds.Float32, 1, 0, []float64{0, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := mds.WriteField(b, []int{2, 2}, mds.Float32, 1, 2, []float64{0.5, -0.5, 1, 0}); err != nil {
		t.Fatal(err)
	}

	fa, err := ReadPerturbation(a)
	if err != nil {
		t.Fatalf("ReadPerturbation failed: %v", err)
	}
	fb, err := ReadPerturbation(b)
	if err != nil {
		t.Fatalf("ReadPerturbation failed: %v", err)
	}

	d, err := Delta(fa, fb)
	if err != nil {
		t.Fatalf("Delta failed: %v", err)
	}
	want := []float64{0.5, -0.5, 1, 0}
	for i := range want {
		if d[i] != want[i] {
			t.Errorf("Delta[%d] = %g, want %g", i, d[i], want[i])
		}
	}
}

func TestDeltaShapeMismatch(t *testing.T) {
	a := &mds.Field{Data: make([]float64, 4)}
	b := &mds.Field{Data: make([]float64, 6)}
	if _, err := Delta(a, b); err == nil {
		t.Error("expected shape mismatch error")
	}
}
