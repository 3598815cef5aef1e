package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/akaitrade/ordinalindex/pkg/log"
	"github.com/akaitrade/ordinalindex/pkg/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ordinal index and its query/subscription server",
	Long: `serve brings the index to the Live state and serves queries and
notifications over the WebSocket query/subscription protocol until
interrupted.

The finalized-block feed itself is supplied by the surrounding chain
component (out of scope for this subsystem); serve wires the index and its
bridge ready to receive that feed's callbacks.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	comps, err := wire(configPath)
	if err != nil {
		return err
	}
	defer comps.Close()

	if err := comps.bridge.Open(); err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	// The chain component supplying the block feed reports its own tip when
	// it drives the replay; standalone, the watermark itself is the tip, so a
	// valid checkpoint resumes in place and an invalidated one still forces
	// the recreate path.
	if err := comps.bridge.OnStartReadFromDB(comps.core.IndexedHeight()); err != nil {
		return fmt.Errorf("start replay: %w", err)
	}
	if err := comps.bridge.OnReadFinished(); err != nil {
		return fmt.Errorf("finish replay: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	comps.collector.Start()
	defer comps.collector.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/live", metrics.LivenessHandler())
	metricsServer := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	qssErrCh := make(chan error, 1)
	go func() { qssErrCh <- comps.server.ListenAndServe(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Logger.Info().Msg("shutting down")
	case err := <-qssErrCh:
		if err != nil {
			log.Logger.Error().Err(err).Msg("query server exited")
		}
	case err := <-comps.fatalCh:
		log.Logger.Error().Err(err).Msg("kv store failed; shutting down")
	}

	cancel()
	_ = comps.server.Shutdown()
	_ = metricsServer.Shutdown(context.Background())
	return nil
}

func init() {
	serveCmd.Flags().String("metrics-addr", ":9945", "Address to serve Prometheus metrics on")
}
