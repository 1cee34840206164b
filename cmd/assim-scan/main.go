// Command assim-scan walks an optimization run directory, parses the
// per-cycle costfunction logs and prints the cost decay as a table.
// With -db the cycles are also recorded into the scan history database.
package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/margaretmurakami/ecco-2024/internal/optim"
	"github.com/margaretmurakami/ecco-2024/internal/rundb"
)

func main() {
	var runDir string
	var dbPath string
	var experiment string
	var showTerms bool

	flag.StringVar(&runDir, "run", ".", "run directory containing costfunctionNNNN files")
	flag.StringVar(&dbPath, "db", "", "record cycles into this sqlite history db")
	flag.StringVar(&experiment, "experiment", "", "experiment label stored with the run")
	flag.BoolVar(&showTerms, "terms", false, "print the per-term cost breakdown of each cycle")
	flag.Parse()

	iters, err := optim.ScanRun(runDir)
	if err != nil {
		log.Fatalf("scan failed: %v", err)
	}
	points := optim.DecaySeries(iters)

	fmt.Printf("%-8s %-22s %-12s %s\n", "cycle", "fc", "fc/fc0", "file")
	for i, it := range iters {
		fmt.Printf("%-8d %-22.12e %-12.6f %s\n", it.Cycle, it.FC, points[i].Normalized, it.File)
		if showTerms {
			names := make([]string, 0, len(it.Terms))
			for name := range it.Terms {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				t := it.Terms[name]
				fmt.Printf("    %-20s %-22.12e num=%g\n", name, t.Value, t.Num)
			}
		}
	}

	if dbPath == "" {
		return
	}
	db, err := rundb.NewDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	runID, err := db.RecordRun(runDir, experiment)
	if err != nil {
		log.Fatalf("record run: %v", err)
	}
	if err := db.RecordIterations(runID, iters); err != nil {
		log.Fatalf("record iterations: %v", err)
	}
	fmt.Printf("recorded %d cycles as run %s\n", len(iters), runID)
}
