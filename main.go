// Command ecco-report serves the scan history and chart views of MITgcm
// adjoint optimization runs, and periodically rescans the configured run
// directory for new optimization cycles.
package main

import (
	"context"
	"embed"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/margaretmurakami/ecco-2024/api"
	"github.com/margaretmurakami/ecco-2024/internal/config"
	"github.com/margaretmurakami/ecco-2024/internal/optim"
	"github.com/margaretmurakami/ecco-2024/internal/rundb"
)

var (
	//go:embed static/*
	staticFiles embed.FS

	devMode      = flag.Bool("dev", false, "Serve static files from ./static instead of the embedded copy")
	listen       = flag.String("listen", ":8080", "Listen address")
	dbPath       = flag.String("db", "assim_history.db", "Path to the scan history database")
	configPath   = flag.String("config", "", "Path to the experiment config JSON")
	scanInterval = flag.Duration("scan-interval", 0, "Rescan the run directory at this interval (0 disables)")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := &config.Config{}
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	db, err := rundb.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open history database: %v", err)
	}
	defer db.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// periodic rescan of the run directory for new optimization cycles
	if *scanInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(*scanInterval)
			defer ticker.Stop()
			for {
				if err := rescan(db, cfg); err != nil {
					log.Printf("rescan failed: %v", err)
				}
				select {
				case <-ticker.C:
				case <-ctx.Done():
					log.Print("rescan routine terminated")
					return
				}
			}
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		apiMux := api.NewServer(db, cfg).ServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiMux))

		// read static files from the embedded filesystem in production or
		// from the local ./static in dev for easier iteration
		var staticHandler http.Handler
		if *devMode {
			staticHandler = http.FileServer(http.Dir("./static"))
		} else {
			staticRoot, err := fs.Sub(staticFiles, "static")
			if err != nil {
				log.Fatalf("failed to mount embedded static files: %v", err)
			}
			staticHandler = http.FileServer(http.FS(staticRoot))
		}
		mux.Handle("/", staticHandler)

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		})

		server := &http.Server{
			Addr:    *listen,
			Handler: h,
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// rescan picks up new costfunction logs from the configured run directory
// and records them against the run's history row.
func rescan(db *rundb.DB, cfg *config.Config) error {
	iters, err := optim.ScanRun(cfg.GetRunDir())
	if err != nil {
		return err
	}
	runID, err := db.RecordRun(cfg.GetRunDir(), "")
	if err != nil {
		return err
	}
	if err := db.RecordIterations(runID, iters); err != nil {
		return err
	}
	log.Printf("recorded %d cycles for run %s", len(iters), runID)
	return nil
}
