// Package adjoint inspects the sensitivity fields produced by the model's
// adjoint integration: the gradient of the scalar cost with respect to
// each control variable, mapped onto the model grid (adxx_* files).
package adjoint

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/margaretmurakami/ecco-2024/internal/grid"
	"github.com/margaretmurakami/ecco-2024/internal/mds"
)

// LoadSensitivity reads an adjoint sensitivity field (MDS format).
func LoadSensitivity(basePath string) (*mds.Field, error) {
	f, err := mds.ReadField(basePath)
	if err != nil {
		return nil, fmt.Errorf("read sensitivity: %w", err)
	}
	return f, nil
}

// LevelStats summarises one depth level of a sensitivity field over wet
// cells.
type LevelStats struct {
	K     int     `json:"k"`
	Depth float64 `json:"depth_m"`
	Wet   int     `json:"wet_cells"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
}

// Levels computes per-level statistics for record 0 of f. Dry and NaN
// cells are excluded; a level with no usable cells reports NaN moments.
func Levels(f *mds.Field, g *grid.Grid) ([]LevelStats, error) {
	if f.Nx() != g.Nx || f.Ny() != g.Ny {
		return nil, fmt.Errorf("field %dx%d does not match grid %dx%d", f.Nx(), f.Ny(), g.Nx, g.Ny)
	}
	nz := f.Nz()
	if nz > g.Nz {
		return nil, fmt.Errorf("field has %d levels, grid has %d", nz, g.Nz)
	}

	out := make([]LevelStats, 0, nz)
	for k := 0; k < nz; k++ {
		slab := f.Level(0, k)
		vals := make([]float64, 0, len(slab))
		for j := 0; j < g.Ny; j++ {
			for i := 0; i < g.Nx; i++ {
				v := slab[j*g.Nx+i]
				if g.WetAt(k, j, i) && !math.IsNaN(v) {
					vals = append(vals, v)
				}
			}
		}

		ls := LevelStats{K: k, Depth: g.RC[k], Wet: len(vals)}
		if len(vals) == 0 {
			ls.Min, ls.Max, ls.Mean, ls.Std = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		} else {
			ls.Min, ls.Max = vals[0], vals[0]
			for _, v := range vals {
				if v < ls.Min {
					ls.Min = v
				}
				if v > ls.Max {
					ls.Max = v
				}
			}
			ls.Mean = stat.Mean(vals, nil)
			ls.Std = stat.StdDev(vals, nil)
			if len(vals) == 1 {
				ls.Std = 0
			}
		}
		out = append(out, ls)
	}
	return out, nil
}

// Peak is one high-sensitivity location.
type Peak struct {
	K     int     `json:"k"`
	J     int     `json:"j"`
	I     int     `json:"i"`
	Lon   float64 `json:"lon"`
	Lat   float64 `json:"lat"`
	Depth float64 `json:"depth_m"`
	Value float64 `json:"value"`
}

// TopN returns the n wet cells of level k with the largest |sensitivity|,
// strongest first. Answers "where does the cost care most about this
// control".
func TopN(f *mds.Field, g *grid.Grid, k, n int) ([]Peak, error) {
	if f.Nx() != g.Nx || f.Ny() != g.Ny {
		return nil, fmt.Errorf("field %dx%d does not match grid %dx%d", f.Nx(), f.Ny(), g.Nx, g.Ny)
	}
	if k < 0 || k >= f.Nz() {
		return nil, fmt.Errorf("level %d out of range [0,%d)", k, f.Nz())
	}

	slab := f.Level(0, k)
	peaks := make([]Peak, 0, g.Ny*g.Nx)
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			v := slab[j*g.Nx+i]
			if !g.WetAt(k, j, i) || math.IsNaN(v) {
				continue
			}
			lon, lat := g.LonLat(j, i)
			peaks = append(peaks, Peak{K: k, J: j, I: i, Lon: lon, Lat: lat, Depth: g.RC[k], Value: v})
		}
	}
	sort.Slice(peaks, func(a, b int) bool {
		return math.Abs(peaks[a].Value) > math.Abs(peaks[b].Value)
	})
	if n < len(peaks) {
		peaks = peaks[:n]
	}
	return peaks, nil
}
