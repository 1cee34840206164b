// Command misfit-check recomputes the model-observation misfit J from the
// raw model output and compares it against the fc value the model logged
// for the same cycle. It exits non-zero when the two disagree beyond the
// configured tolerance, so it can gate a run in a script.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/margaretmurakami/ecco-2024/internal/config"
	"github.com/margaretmurakami/ecco-2024/internal/cost"
	"github.com/margaretmurakami/ecco-2024/internal/grid"
	"github.com/margaretmurakami/ecco-2024/internal/mds"
	"github.com/margaretmurakami/ecco-2024/internal/rundb"
)

func main() {
	var configPath string
	var costFile string
	var cycle int
	var dbPath string

	flag.StringVar(&configPath, "config", "", "experiment config JSON (grid dims, file paths, tolerance)")
	flag.StringVar(&costFile, "costfile", "", "costfunction log holding the fc to check against (default costfunctionNNNN for -cycle under the run dir)")
	flag.IntVar(&cycle, "cycle", 0, "optimization cycle being checked")
	flag.StringVar(&dbPath, "db", "", "record the check result into this sqlite history db")
	flag.Parse()

	if configPath == "" {
		log.Fatal("config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.GetModelFile() == "" || cfg.GetObsFile() == "" || cfg.GetSigmaFile() == "" {
		log.Fatal("config must set model_file, obs_file and sigma_file")
	}

	g, err := grid.Load(cfg.GetGridDir(), cfg.GetNX(), cfg.GetNY(), cfg.GetNZ())
	if err != nil {
		log.Fatalf("load grid: %v", err)
	}

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

	res, err := cost.Misfit(model, obs, sigma, g, cost.Options{
		AreaWeight: cfg.GetAreaWeight(),
		Multiplier: cfg.GetCostMultiplier(),
	})
	if err != nil {
		log.Fatalf("recompute misfit: %v", err)
	}

	if costFile == "" {
		costFile = filepath.Join(cfg.GetRunDir(), fmt.Sprintf("costfunction%04d", cycle))
	}
	f, err := os.Open(costFile)
	if err != nil {
		log.Fatalf("open costfunction log: %v", err)
	}
	terms, err := cost.ParseCostFunction(f)
	f.Close()
	if err != nil {
		log.Fatalf("parse %s: %v", costFile, err)
	}
	total, ok := terms[cost.TotalTerm]
	if !ok {
		log.Fatalf("%s has no %s term", costFile, cost.TotalTerm)
	}

	check := cost.CrossCheck(res.J, total.Value, cfg.GetMisfitRelTol())
	fmt.Printf("recomputed J = %.12e over %d wet cells\n", check.Recomputed, res.Cells)
	fmt.Printf("logged fc    = %.12e (%s)\n", check.Logged, costFile)
	fmt.Printf("rel error    = %.3e (tolerance %.3e)\n", check.RelErr, cfg.GetMisfitRelTol())

	if dbPath != "" {
		db, err := rundb.NewDB(dbPath)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer db.Close()
		runID, err := db.RecordRun(cfg.GetRunDir(), "")
		if err != nil {
			log.Fatalf("record run: %v", err)
		}
		if err := db.RecordMisfitCheck(runID, cycle, check); err != nil {
			log.Fatalf("record check: %v", err)
		}
	}

	if !check.Passed {
		fmt.Println("FAIL")
		os.Exit(1)
	}
	fmt.Println("OK")
}

// loadSlab reads a surface ny*nx slab either from a full MDS file pair or,
// when no .meta exists, from a raw float32 blob of grid shape.
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
