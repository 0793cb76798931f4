package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marketskies/baroscan/internal/config"
	"github.com/marketskies/baroscan/internal/holdlist"
	"github.com/marketskies/baroscan/internal/metrics"
	"github.com/marketskies/baroscan/internal/scan"
)

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Serve health, metrics, and periodic scan snapshots over HTTP",
		Long: `Runs scans on an interval and exposes the latest report as JSON,
alongside Prometheus metrics and a health probe.`,
		RunE: runMonitor,
	}
	cmd.Flags().String("addr", ":8090", "Listen address")
	cmd.Flags().Duration("interval", time.Hour, "Scan interval")
	cmd.Flags().String("model", "conservative", "Model preset for the periodic scan")
	cmd.Flags().String("universe", "", "Optional YAML universe file")
	cmd.Flags().String("hold-list", holdlist.DefaultPath, "Hold list file path")
	cmd.Flags().String("lookback", "2y", "History range per ticker")
	cmd.Flags().Int("workers", 0, "Scan worker pool size (0 = CPU count)")
	return cmd
}

// monitorState holds the newest report for the HTTP handlers. A nil report
// means no scan has completed yet.
type monitorState struct {
	mu     sync.RWMutex
	report *scan.Report
}

func (s *monitorState) set(r scan.Report) {
	s.mu.Lock()
	s.report = &r
	s.mu.Unlock()
}

func (s *monitorState) get() *scan.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

func runMonitor(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	interval, _ := cmd.Flags().GetDuration("interval")
	modelName, _ := cmd.Flags().GetString("model")
	universeFile, _ := cmd.Flags().GetString("universe")
	holdPath, _ := cmd.Flags().GetString("hold-list")
	lookback, _ := cmd.Flags().GetString("lookback")
	workers, _ := cmd.Flags().GetInt("workers")

	model, err := resolveModel(cmd, modelName)
	if err != nil {
		return err
	}
	tickers := scan.DefaultUniverse()
	if universeFile != "" {
		if tickers, err = scan.LoadUniverse(universeFile); err != nil {
			return err
		}
	}

	reg := metrics.NewRegistry()
	provider := buildProvider(cmd, reg)
	scanner := scan.New(provider, reg)
	state := &monitorState{}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runScan := func() {
		held, err := holdlist.NewStore(holdPath).Load()
		if err != nil {
			log.Error().Err(err).Msg("hold list load failed")
			held = map[string]bool{}
		}
		scanCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()
		report, err := scanner.Run(scanCtx, scan.Options{
			Tickers:  scan.MergeUniverse(tickers, held),
			Held:     held,
			Models:   []config.Model{model},
			Names:    []string{modelName},
			Lookback: lookback,
			Workers:  workers,
		})
		if err != nil {
			log.Error().Err(err).Msg("periodic scan failed")
			return
		}
		state.set(report)
		log.Info().Int("tickers", len(report.Tickers)).
			Int("failures", report.Failures).Msg("scan snapshot refreshed")
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ok",
			"version": version,
			"scanned": state.get() != nil,
		})
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(reg.Prometheus(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/report", func(w http.ResponseWriter, r *http.Request) {
		report := state.get()
		if report == nil {
			http.Error(w, `{"error":"no scan completed yet"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	}).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Dur("interval", interval).Msg("monitor listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	go func() {
		runScan()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runScan()
			}
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
