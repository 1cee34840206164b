// Package optim follows the outer optimization loop from the outside: it
// scans a run directory for the per-cycle costfunction logs the model
// writes and assembles the cost decay across cycles.
package optim

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/margaretmurakami/ecco-2024/internal/cost"
	"github.com/margaretmurakami/ecco-2024/internal/monitoring"
)

// Iteration is one optimization cycle as recorded by its costfunction log.
type Iteration struct {
	Cycle int                  `json:"cycle"`
	FC    float64              `json:"fc"`
	Terms map[string]cost.Term `json:"terms"`
	File  string               `json:"file"`
}

// costFile matches the model's per-cycle log names, e.g. "costfunction0003".
var costFile = regexp.MustCompile(`^costfunction(\d{4})$`)

// ScanRun parses every costfunction log under dir and returns the cycles
// in ascending order. Gaps in the cycle numbering are preserved: sparse
// optimizer runs are normal. A log without an fc total is skipped with a
// diagnostic rather than failing the whole scan.
func ScanRun(dir string) ([]Iteration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan run dir: %w", err)
	}

	var iters []Iteration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := costFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		cycle, _ := strconv.Atoi(m[1])

		path := filepath.Join(dir, e.Name())
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		terms, err := cost.ParseCostFunction(f)
		f.Close()
		if err != nil {
			monitoring.Logf("skipping %s: %v", path, err)
			continue
		}
		total, ok := terms[cost.TotalTerm]
		if !ok {
			monitoring.Logf("skipping %s: no %s term", path, cost.TotalTerm)
			continue
		}

		iters = append(iters, Iteration{Cycle: cycle, FC: total.Value, Terms: terms, File: path})
	}
	if len(iters) == 0 {
		return nil, fmt.Errorf("no costfunction files in %s", dir)
	}

	sort.Slice(iters, func(a, b int) bool { return iters[a].Cycle < iters[b].Cycle })
	return iters, nil
}

// DecayPoint is one point of the cost decay curve.
type DecayPoint struct {
	Cycle      int     `json:"cycle"`
	FC         float64 `json:"fc"`
	Normalized float64 `json:"normalized"` // fc / fc at the first cycle
}

// DecaySeries turns scanned iterations into a decay curve. The first
// cycle's cost normalises the rest; if it is zero the normalised values
// are left at zero.
func DecaySeries(iters []Iteration) []DecayPoint {
	pts := make([]DecayPoint, 0, len(iters))
	var fc0 float64
	for i, it := range iters {
		if i == 0 {
			fc0 = it.FC
		}
		p := DecayPoint{Cycle: it.Cycle, FC: it.FC}
		if fc0 != 0 {
			p.Normalized = it.FC / fc0
		}
		pts = append(pts, p)
	}
	return pts
}
