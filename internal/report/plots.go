// Package report renders the inspection figures: cost decay across
// optimization cycles, field heatmaps (sensitivity, misfit, control
// perturbations) and the echarts HTML views served by the report server.
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/margaretmurakami/ecco-2024/internal/grid"
	"github.com/margaretmurakami/ecco-2024/internal/optim"
	"github.com/margaretmurakami/ecco-2024/internal/security"
)

// CostDecayPlot draws fc against optimization cycle and saves a PNG.
// With logY the Y axis is logarithmic, which only engages when every cost
// is positive.
func CostDecayPlot(points []optim.DecayPoint, logY bool, path string) error {
	if len(points) == 0 {
		return fmt.Errorf("no decay points to plot")
	}

	p := plot.New()
	p.Title.Text = "Cost function decay"
	p.X.Label.Text = "Optimization cycle"
	p.Y.Label.Text = "fc"

	xys := make(plotter.XYs, 0, len(points))
	allPositive := true
	for _, pt := range points {
		xys = append(xys, plotter.XY{X: float64(pt.Cycle), Y: pt.FC})
		if pt.FC <= 0 {
			allPositive = false
		}
	}

	if logY && allPositive {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("cost decay line: %w", err)
	}
	line.Width = vg.Points(1.5)
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("cost decay points: %w", err)
	}
	p.Add(line, scatter)
	p.Legend.Add("fc", line)
	p.Legend.Top = true

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save cost decay plot: %w", err)
	}
	return nil
}

// fieldGrid adapts a ny*nx slab plus grid coordinates to plotter.GridXYZ.
// Axis positions come from the first row/column of the cell centres, which
// is exact for regular lat-lon grids.
type fieldGrid struct {
	vals []float64
	g    *grid.Grid
}

func (fg fieldGrid) Dims() (c, r int) { return fg.g.Nx, fg.g.Ny }
func (fg fieldGrid) Z(c, r int) float64 {
	return fg.vals[r*fg.g.Nx+c]
}
func (fg fieldGrid) X(c int) float64 { return fg.g.XC[c] }
func (fg fieldGrid) Y(r int) float64 { return fg.g.YC[r*fg.g.Nx] }

// FieldHeatmap draws one ny*nx slab as a lat-lon heatmap PNG. Land and
// skipped cells should arrive as NaN; the heatmap leaves them blank.
// Diverging fields (sensitivities, perturbations) get a symmetric range
// around zero with a blue-white-red map.
func FieldHeatmap(vals []float64, g *grid.Grid, title string, diverging bool, path string) error {
	if len(vals) != g.Nx*g.Ny {
		return fmt.Errorf("field has %d values, grid is %dx%d", len(vals), g.Nx, g.Ny)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"

	hm := plotter.NewHeatMap(fieldGrid{vals: vals, g: g}, moreland.SmoothBlueRed().Palette(255))
	if diverging {
		bound := 0.0
		for _, v := range vals {
			if !math.IsNaN(v) && math.Abs(v) > bound {
				bound = math.Abs(v)
			}
		}
		if bound == 0 {
			bound = 1
		}
		hm.Min, hm.Max = -bound, bound
	}
	p.Add(hm)

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save heatmap: %w", err)
	}
	return nil
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakeReportDir creates a timestamped output directory under baseDir named
// after the run directory being reported on.
func MakeReportDir(baseDir, runDir string) (string, error) {
	name := security.SanitizeFilename(filepath.Base(filepath.Clean(runDir)))
	dir := filepath.Join(baseDir, name, FormatTimestamp(time.Now()))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	return dir, nil
}
