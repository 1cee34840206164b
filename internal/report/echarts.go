package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/margaretmurakami/ecco-2024/internal/grid"
	"github.com/margaretmurakami/ecco-2024/internal/optim"
)

// viridis is the colour ramp used for the field visual maps.
var viridis = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// RenderFieldScatter writes an HTML scatter chart of one ny*nx slab:
// longitude/latitude points coloured by value. NaN cells (land, skipped)
// are dropped; maxPoints bounds the payload via striding.
func RenderFieldScatter(w io.Writer, vals []float64, g *grid.Grid, title string, maxPoints int) error {
	if len(vals) != g.Nx*g.Ny {
		return fmt.Errorf("field has %d values, grid is %dx%d", len(vals), g.Nx, g.Ny)
	}
	if maxPoints <= 0 {
		maxPoints = 8000
	}
	stride := 1
	if len(vals) > maxPoints {
		stride = int(math.Ceil(float64(len(vals)) / float64(maxPoints)))
	}

	data := make([]opts.ScatterData, 0, len(vals)/stride+1)
	lo, hi := math.Inf(1), math.Inf(-1)
	for idx := 0; idx < len(vals); idx += stride {
		v := vals[idx]
		if math.IsNaN(v) {
			continue
		}
		j, i := idx/g.Nx, idx%g.Nx
		lon, lat := g.LonLat(j, i)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
		data = append(data, opts.ScatterData{Value: []interface{}{lon, lat, v}})
	}
	if len(data) == 0 {
		return fmt.Errorf("no plottable cells in field")
	}
	if lo == hi {
		hi = lo + 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "1000px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("points=%d stride=%d", len(data), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("field", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render field chart: %w", err)
	}
	return nil
}

// RenderCostDecay writes an HTML line chart of fc per optimization cycle.
func RenderCostDecay(w io.Writer, points []optim.DecayPoint, title string) error {
	if len(points) == 0 {
		return fmt.Errorf("no decay points to render")
	}

	cycles := make([]string, 0, len(points))
	fc := make([]opts.LineData, 0, len(points))
	norm := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		cycles = append(cycles, fmt.Sprintf("%d", p.Cycle))
		fc = append(fc, opts.LineData{Value: p.FC})
		norm = append(norm, opts.LineData{Value: p.Normalized})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Cycle"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "fc"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(cycles).
		AddSeries("fc", fc).
		AddSeries("fc / fc0", norm)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render cost decay chart: %w", err)
	}
	return nil
}
