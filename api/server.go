// Package api exposes the scan history and chart views over HTTP.
package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/margaretmurakami/ecco-2024/internal/config"
	"github.com/margaretmurakami/ecco-2024/internal/grid"
	"github.com/margaretmurakami/ecco-2024/internal/httputil"
	"github.com/margaretmurakami/ecco-2024/internal/mds"
	"github.com/margaretmurakami/ecco-2024/internal/optim"
	"github.com/margaretmurakami/ecco-2024/internal/report"
	"github.com/margaretmurakami/ecco-2024/internal/rundb"
	"github.com/margaretmurakami/ecco-2024/internal/security"
	"github.com/margaretmurakami/ecco-2024/internal/version"
)

type Server struct {
	db  *rundb.DB
	cfg *config.Config

	gridOnce sync.Once
	grid     *grid.Grid
	gridErr  error
}

func NewServer(db *rundb.DB, cfg *config.Config) *Server {
	return &Server{db: db, cfg: cfg}
}

// ServeMux returns the API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("GET /runs", s.listRuns)
	mux.HandleFunc("GET /runs/{id}/iterations", s.runIterations)
	mux.HandleFunc("GET /runs/{id}/checks", s.runChecks)
	mux.HandleFunc("GET /charts/costdecay", s.chartCostDecay)
	mux.HandleFunc("GET /charts/field", s.chartField)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.db.Runs()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []rundb.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) runIterations(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Iterations(r.PathValue("id"))
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("list iterations: %v", err))
		return
	}
	if len(rows) == 0 {
		httputil.NotFound(w, "no iterations recorded for run")
		return
	}
	httputil.WriteJSONOK(w, rows)
}

func (s *Server) runChecks(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.MisfitChecks(r.PathValue("id"))
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("list misfit checks: %v", err))
		return
	}
	if rows == nil {
		rows = []rundb.MisfitCheckRow{}
	}
	httputil.WriteJSONOK(w, rows)
}

// chartCostDecay renders the cost decay of a recorded run as an echarts
// HTML page.
func (s *Server) chartCostDecay(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		httputil.BadRequest(w, "missing run parameter")
		return
	}
	rows, err := s.db.Iterations(runID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("load iterations: %v", err))
		return
	}
	if len(rows) == 0 {
		httputil.NotFound(w, "no iterations recorded for run")
		return
	}

	iters := make([]optim.Iteration, 0, len(rows))
	for _, row := range rows {
		iters = append(iters, optim.Iteration{Cycle: row.Cycle, FC: row.FC})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderCostDecay(w, optim.DecaySeries(iters), "Cost function decay"); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render chart: %v", err))
	}
}

// chartField renders one depth level of an MDS field under the configured
// run directory as an echarts scatter. The base parameter is taken
// relative to the run directory; escaping it is rejected.
func (s *Server) chartField(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Query().Get("base")
	if base == "" {
		httputil.BadRequest(w, "missing base parameter")
		return
	}
	if filepath.IsAbs(base) || !filepath.IsLocal(base) {
		httputil.BadRequest(w, "base must be a relative path inside the run directory")
		return
	}
	fieldPath := filepath.Join(s.cfg.GetRunDir(), base)
	if err := security.ValidatePathWithinDirectory(fieldPath, s.cfg.GetRunDir()); err != nil {
		httputil.BadRequest(w, "base must be a relative path inside the run directory")
		return
	}

	level := 0
	if lv := r.URL.Query().Get("level"); lv != "" {
		v, err := strconv.Atoi(lv)
		if err != nil || v < 0 {
			httputil.BadRequest(w, "bad level parameter")
			return
		}
		level = v
	}

	g, err := s.loadGrid()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("load grid: %v", err))
		return
	}

	f, err := mds.ReadField(fieldPath)
	if err != nil {
		httputil.NotFound(w, fmt.Sprintf("read field: %v", err))
		return
	}
	if level >= f.Nz() {
		httputil.BadRequest(w, fmt.Sprintf("level %d out of range, field has %d", level, f.Nz()))
		return
	}

	title := fmt.Sprintf("%s (k=%d)", strings.TrimSuffix(filepath.Base(base), ".data"), level)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderFieldScatter(w, f.Level(0, level), g, title, 0); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render chart: %v", err))
	}
}

func (s *Server) loadGrid() (*grid.Grid, error) {
	s.gridOnce.Do(func() {
		s.grid, s.gridErr = grid.Load(s.cfg.GetGridDir(), s.cfg.GetNX(), s.cfg.GetNY(), s.cfg.GetNZ())
	})
	return s.grid, s.gridErr
}
