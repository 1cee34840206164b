package cost

import (
	"fmt"
	"math"

	"github.com/margaretmurakami/ecco-2024/internal/grid"
)

// Options tunes the misfit sum. The zero value reproduces the model's
// ecco-style SST cost: unweighted by area, multiplier 1.
type Options struct {
	// AreaWeight scales each cell's contribution by its area over the
	// mean wet-cell area.
	AreaWeight bool
	// Multiplier is applied to the final sum; 0 means 1. Use 0.5 when
	// comparing against optimizers that carry the 1/2 convention.
	Multiplier float64
}

// Result is a recomputed misfit.
type Result struct {
	J     float64 // weighted sum of squared normalised differences
	Cells int     // wet cells that contributed
}

// Misfit recomputes the scalar model-observation cost over the surface
// level:
//
//	J = mult * sum over wet cells of w_a * ((model - obs) / sigma)^2
//
// model, obs and sigma are ny*nx slabs. Cells are skipped when they are
// dry, when either field is NaN, or when sigma is not positive (zero
// uncertainty marks unconstrained cells in the weight files).
func Misfit(model, obs, sigma []float64, g *grid.Grid, opts Options) (Result, error) {
	n := g.Nx * g.Ny
	if len(model) != n || len(obs) != n || len(sigma) != n {
		return Result{}, fmt.Errorf("field sizes %d/%d/%d do not match grid %dx%d",
			len(model), len(obs), len(sigma), g.Nx, g.Ny)
	}

	mult := opts.Multiplier
	if mult == 0 {
		mult = 1
	}
	meanArea := 1.0
	if opts.AreaWeight {
		meanArea = g.MeanWetArea()
		if meanArea <= 0 {
			return Result{}, fmt.Errorf("area weighting requested but grid has no wet cells")
		}
	}

	var res Result
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			if !g.Wet(j, i) {
				continue
			}
			idx := j*g.Nx + i
			m, o, s := model[idx], obs[idx], sigma[idx]
			if math.IsNaN(m) || math.IsNaN(o) || s <= 0 {
				continue
			}
			d := (m - o) / s
			w := 1.0
			if opts.AreaWeight {
				w = g.RAC[idx] / meanArea
			}
			res.J += w * d * d
			res.Cells++
		}
	}
	res.J *= mult
	return res, nil
}

// MisfitField returns the per-cell contribution map ((model-obs)/sigma)^2
// with NaN over land and skipped cells, for plotting where the cost comes
// from.
func MisfitField(model, obs, sigma []float64, g *grid.Grid) ([]float64, error) {
	n := g.Nx * g.Ny
	if len(model) != n || len(obs) != n || len(sigma) != n {
		return nil, fmt.Errorf("field sizes %d/%d/%d do not match grid %dx%d",
			len(model), len(obs), len(sigma), g.Nx, g.Ny)
	}
	out := make([]float64, n)
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			idx := j*g.Nx + i
			m, o, s := model[idx], obs[idx], sigma[idx]
			if !g.Wet(j, i) || math.IsNaN(m) || math.IsNaN(o) || s <= 0 {
				out[idx] = math.NaN()
				continue
			}
			d := (m - o) / s
			out[idx] = d * d
		}
	}
	return out, nil
}
