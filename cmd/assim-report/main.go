// Command assim-report renders the standard figure set for one run into a
// timestamped directory: cost decay across cycles, sensitivity heatmaps
// for chosen depth levels, the control perturbation map and, when the
// misfit inputs are configured, the per-cell misfit contribution map.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"path/filepath"
	"strings"

	"github.com/margaretmurakami/ecco-2024/internal/adjoint"
	"github.com/margaretmurakami/ecco-2024/internal/config"
	"github.com/margaretmurakami/ecco-2024/internal/cost"
	"github.com/margaretmurakami/ecco-2024/internal/ctrl"
	"github.com/margaretmurakami/ecco-2024/internal/grid"
	"github.com/margaretmurakami/ecco-2024/internal/mds"
	"github.com/margaretmurakami/ecco-2024/internal/optim"
	"github.com/margaretmurakami/ecco-2024/internal/report"
)

func main() {
	var configPath string
	var adjBase string
	var xxBase string
	var levels string
	var logY bool

	flag.StringVar(&configPath, "config", "", "experiment config JSON")
	flag.StringVar(&adjBase, "adj", "", "adjoint sensitivity field base path (e.g. run/adxx_theta.0000000012)")
	flag.StringVar(&xxBase, "xx", "", "control perturbation field base path (e.g. run/xx_theta.0000000012)")
	flag.StringVar(&levels, "levels", "0", "comma-separated depth levels to render for the sensitivity field")
	flag.BoolVar(&logY, "log", true, "log-scale Y axis on the cost decay plot")
	flag.Parse()

	if configPath == "" {
		log.Fatal("config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	g, err := grid.Load(cfg.GetGridDir(), cfg.GetNX(), cfg.GetNY(), cfg.GetNZ())
	if err != nil {
		log.Fatalf("load grid: %v", err)
	}

	outDir, err := report.MakeReportDir(cfg.GetPlotDir(), cfg.GetRunDir())
	if err != nil {
		log.Fatalf("create report dir: %v", err)
	}
	log.Printf("writing report to %s", outDir)

	// cost decay
	iters, err := optim.ScanRun(cfg.GetRunDir())
	if err != nil {
		log.Printf("skipping cost decay: %v", err)
	} else {
		path := filepath.Join(outDir, "cost_decay.png")
		if err := report.CostDecayPlot(optim.DecaySeries(iters), logY, path); err != nil {
			log.Fatalf("cost decay plot: %v", err)
		}
		fmt.Println(path)
	}

	// sensitivity heatmaps and level table
	if adjBase != "" {
		f, err := adjoint.LoadSensitivity(adjBase)
		if err != nil {
			log.Fatalf("load sensitivity: %v", err)
		}
		stats, err := adjoint.Levels(f, g)
		if err != nil {
			log.Fatalf("level stats: %v", err)
		}
		fmt.Printf("%-4s %-10s %-8s %-14s %-14s %-14s\n", "k", "depth", "wet", "min", "max", "std")
		for _, ls := range stats {
			fmt.Printf("%-4d %-10.1f %-8d %-14.4e %-14.4e %-14.4e\n",
				ls.K, ls.Depth, ls.Wet, ls.Min, ls.Max, ls.Std)
		}

		name := filepath.Base(adjBase)
		for _, k := range parseLevels(levels) {
			if k < 0 || k >= f.Nz() {
				log.Fatalf("level %d out of range, field has %d", k, f.Nz())
			}
			path := filepath.Join(outDir, fmt.Sprintf("%s_k%02d.png", name, k))
			title := fmt.Sprintf("%s (k=%d, %.0f m)", name, k, g.RC[k])
			if err := report.FieldHeatmap(masked(f.Level(0, k), g, k), g, title, true, path); err != nil {
				log.Fatalf("sensitivity heatmap: %v", err)
			}
			fmt.Println(path)
		}
	}

	// control perturbation map
	if xxBase != "" {
		f, err := ctrl.ReadPerturbation(xxBase)
		if err != nil {
			log.Fatalf("load perturbation: %v", err)
		}
		s := ctrl.Summarise(f.Level(0, 0))
		fmt.Printf("%s: n=%d min=%.4e max=%.4e mean=%.4e rms=%.4e\n",
			filepath.Base(xxBase), s.N, s.Min, s.Max, s.Mean, s.RMS)

		path := filepath.Join(outDir, filepath.Base(xxBase)+".png")
		title := filepath.Base(xxBase) + " (surface)"
		if err := report.FieldHeatmap(masked(f.Level(0, 0), g, 0), g, title, true, path); err != nil {
			log.Fatalf("perturbation heatmap: %v", err)
		}
		fmt.Println(path)
	}

	// misfit contribution map, when the inputs are configured
	if cfg.GetModelFile() != "" && cfg.GetObsFile() != "" && cfg.GetSigmaFile() != "" {
		model, err := loadSlab(cfg.GetModelFile(), g)
		if err != nil {
			log.Fatalf("load model field: %v", err)
		}
		obs, err := loadSlab(cfg.GetObsFile(), g)
		if err != nil {
			log.Fatalf("load observations: %v", err)
		}
		sigma, err := loadSlab(cfg.GetSigmaFile(), g)
		if err != nil {
			log.Fatalf("load uncertainties: %v", err)
		}
		contrib, err := cost.MisfitField(model, obs, sigma, g)
		if err != nil {
			log.Fatalf("misfit field: %v", err)
		}
		path := filepath.Join(outDir, "misfit_contribution.png")
		if err := report.FieldHeatmap(contrib, g, "Misfit contribution ((model-obs)/sigma)^2", false, path); err != nil {
			log.Fatalf("misfit heatmap: %v", err)
		}
		fmt.Println(path)
	}
}

func parseLevels(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var k int
		if _, err := fmt.Sscanf(part, "%d", &k); err != nil {
			log.Fatalf("bad level %q", part)
		}
		out = append(out, k)
	}
	return out
}

// masked blanks dry cells so land renders empty in the heatmap.
func masked(vals []float64, g *grid.Grid, k int) []float64 {
	out := make([]float64, len(vals))
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			idx := j*g.Nx + i
			if g.WetAt(k, j, i) {
				out[idx] = vals[idx]
			} else {
				out[idx] = math.NaN()
			}
		}
	}
	return out
}

func loadSlab(path string, g *grid.Grid) ([]float64, error) {
	f, err := mds.ReadField(path)
	if err != nil {
		f, err = mds.ReadRaw(path, []int{g.Nx, g.Ny}, mds.Float32)
		if err != nil {
			return nil, err
		}
	}
	if f.Nx() != g.Nx || f.Ny() != g.Ny {
		return nil, fmt.Errorf("field %dx%d does not match grid %dx%d", f.Nx(), f.Ny(), g.Nx, g.Ny)
	}
	return f.Level(0, 0), nil
}
