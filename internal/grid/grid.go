// Package grid loads the model grid an experiment was integrated on:
// cell-centre coordinates, cell areas, depth axis and the land-sea
// geometry derived from the partial-cell fractions (hFacC).
package grid

import (
	"fmt"
	"path/filepath"

	"github.com/margaretmurakami/ecco-2024/internal/mds"
)

// Grid holds the horizontal and vertical discretisation of a run.
// All 2-D slices are ny*nx with x fastest, matching the file layout.
type Grid struct {
	Nx, Ny, Nz int

	XC    []float64 // cell-centre longitude (degrees east)
	YC    []float64 // cell-centre latitude (degrees north)
	RC    []float64 // cell-centre depth axis (m, negative down), nz values
	RAC   []float64 // cell area (m^2)
	Depth []float64 // bathymetry (m, positive)
	HFacC []float64 // partial-cell open fraction, nz*ny*nx
}

// Load reads the standard grid files from dir. XC, YC, RAC, Depth and RC
// are required; hFacC too since every misfit and sensitivity statistic
// needs the wet mask. Grid files are raw float32 blobs without .meta.
func Load(dir string, nx, ny, nz int) (*Grid, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("bad grid dimensions %dx%dx%d", nx, ny, nz)
	}
	g := &Grid{Nx: nx, Ny: ny, Nz: nz}

	plane := []int{nx, ny}
	for _, v := range []struct {
		name  string
		shape []int
		dst   *[]float64
	}{
		{"XC", plane, &g.XC},
		{"YC", plane, &g.YC},
		{"RAC", plane, &g.RAC},
		{"Depth", plane, &g.Depth},
		{"RC", []int{nz}, &g.RC},
		{"hFacC", []int{nx, ny, nz}, &g.HFacC},
	} {
		f, err := mds.ReadRaw(filepath.Join(dir, v.name+".data"), v.shape, mds.Float32)
		if err != nil {
			return nil, fmt.Errorf("grid %s: %w", v.name, err)
		}
		*v.dst = f.Data
	}
	return g, nil
}

// Wet reports whether the surface cell (j,i) is ocean.
func (g *Grid) Wet(j, i int) bool {
	return g.WetAt(0, j, i)
}

// WetAt reports whether the cell at depth level k is (at least partially)
// open ocean.
func (g *Grid) WetAt(k, j, i int) bool {
	return g.HFacC[(k*g.Ny+j)*g.Nx+i] > 0
}

// WetCount returns the number of wet cells at depth level k.
func (g *Grid) WetCount(k int) int {
	n := 0
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			if g.WetAt(k, j, i) {
				n++
			}
		}
	}
	return n
}

// MeanWetArea returns the mean cell area over wet surface cells, used to
// normalise area weighting so an area-weighted sum stays comparable to an
// unweighted one.
func (g *Grid) MeanWetArea() float64 {
	sum, n := 0.0, 0
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			if g.Wet(j, i) {
				sum += g.RAC[j*g.Nx+i]
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// LonLat returns the cell-centre coordinates of (j,i).
func (g *Grid) LonLat(j, i int) (lon, lat float64) {
	return g.XC[j*g.Nx+i], g.YC[j*g.Nx+i]
}
