package grid

import (
	"path/filepath"
	"testing"

	"github.com/margaretmurakami/ecco-2024/internal/mds"
)

// writeTestGrid builds a tiny 4x3x2 grid directory: a zonal strip of ocean
// with a single land column at i=1.
func writeTestGrid(t *testing.T) (string, int, int, int) {
	t.Helper()
	dir := t.TempDir()
	nx, ny, nz := 4, 3, 2

	xc := make([]float64, nx*ny)
	yc := make([]float64, nx*ny)
	rac := make([]float64, nx*ny)
	depth := make([]float64, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			xc[j*nx+i] = float64(i)*4 + 2
			yc[j*nx+i] = float64(j)*4 - 80
			rac[j*nx+i] = 1e10 + float64(j)*1e9
			if i != 1 {
				depth[j*nx+i] = 4000
			}
		}
	}
	rc := []float64{-5, -15}

	hfac := make([]float64, nx*ny*nz)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				if i != 1 {
					hfac[(k*ny+j)*nx+i] = 1
				}
			}
		}
	}

	for name, vals := range map[string][]float64{
		"XC": xc, "YC": yc, "RAC": rac, "Depth": depth, "RC": rc, "hFacC": hfac,
	} {
		if err := mds.WriteRaw(filepath.Join(dir, name+".data"), mds.Float32, vals); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir, nx, ny, nz
}

func TestLoad(t *testing.T) {
	dir, nx, ny, nz := writeTestGrid(t)

	g, err := Load(dir, nx, ny, nz)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if g.Nx != nx || g.Ny != ny || g.Nz != nz {
		t.Errorf("dims = %dx%dx%d, want %dx%dx%d", g.Nx, g.Ny, g.Nz, nx, ny, nz)
	}
	if len(g.HFacC) != nx*ny*nz {
		t.Errorf("len(HFacC) = %d, want %d", len(g.HFacC), nx*ny*nz)
	}
	if g.RC[1] != -15 {
		t.Errorf("RC[1] = %g, want -15", g.RC[1])
	}

	if g.Wet(0, 1) {
		t.Error("column i=1 should be land")
	}
	if !g.Wet(2, 3) {
		t.Error("cell (2,3) should be wet")
	}
	if got := g.WetCount(0); got != ny*(nx-1) {
		t.Errorf("WetCount(0) = %d, want %d", got, ny*(nx-1))
	}

	lon, lat := g.LonLat(1, 2)
	if lon != 10 || lat != -76 {
		t.Errorf("LonLat(1,2) = (%g,%g), want (10,-76)", lon, lat)
	}

	if mwa := g.MeanWetArea(); mwa <= 0 {
		t.Errorf("MeanWetArea = %g, want > 0", mwa)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir(), 4, 3, 2); err == nil {
		t.Error("expected error for empty grid dir")
	}
}

func TestLoadBadDims(t *testing.T) {
	if _, err := Load(t.TempDir(), 0, 3, 2); err == nil {
		t.Error("expected error for zero nx")
	}
}
