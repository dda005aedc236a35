package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/kardianos/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"carrito-cli/internal/exporter"
	"carrito-cli/internal/live"
)

var (
	expPort       string
	serviceAction string
)

// program implements the kardianos/service interface
type program struct {
	rt        *runtime
	collector *exporter.Collector
	live      *live.Client
	server    *http.Server
	cancel    context.CancelFunc
}

func (p *program) Start(s service.Service) error {
	// Start should not block.
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.run(ctx)
	return nil
}

func (p *program) run(ctx context.Context) {
	log := p.rt.logger

	go func() {
		if err := p.live.Run(ctx); err != nil {
			log.Error("live channel stopped", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(p.collector)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(log),
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	addr := fmt.Sprintf(":%s", expPort)
	p.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("exporter listening", zap.String("addr", addr), zap.String("base_url", p.rt.cfg.BaseURL))
	if err := p.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("http server error", zap.Error(err))
	}
}

func (p *program) Stop(s service.Service) error {
	p.rt.logger.Info("stopping exporter")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			p.rt.logger.Warn("server forced to shutdown", zap.Error(err))
		}
	}
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Start Prometheus Exporter service",
	Long: `Starts a long-running HTTP server that exposes device metrics on /metrics:
movement and obstacle totals, last activity, live channel state and live event
counts. Can be installed as a system service.`,
	Run: func(cmd *cobra.Command, args []string) {
		rt := loadRuntime()
		defer rt.logger.Sync()

		svcConfig := &service.Config{
			Name:        "carrito-exporter",
			DisplayName: "Carrito Prometheus Exporter",
			Description: "Exposes carrito device metrics to Prometheus",
			// Arguments passed to the binary when run as a service
			Arguments: []string{
				"exporter",
				"--base-url", rt.cfg.BaseURL,
				"--live-url", rt.cfg.LiveURL,
				"--device", strconv.FormatInt(rt.cfg.DeviceID, 10),
				"--tz", rt.cfg.TimeZone,
				"--log-format", "json",
				"--port", expPort,
			},
		}

		lc := rt.newLive()
		collector := exporter.NewCollector(rt.api, rt.cfg.DeviceID, rt.cfg.TimeZone, rt.logger)
		collector.Watch(lc)

		prg := &program{rt: rt, collector: collector, live: lc}

		s, err := service.New(prg, svcConfig)
		if err != nil {
			fmt.Printf("Error creating service: %v\n", err)
			os.Exit(1)
		}

		if serviceAction != "" {
			if err := service.Control(s, serviceAction); err != nil {
				fmt.Printf("Failed to %s service: %v\n", serviceAction, err)
				os.Exit(1)
			}
			fmt.Printf("Service action '%s' completed successfully.\n", serviceAction)
			return
		}

		// Runs until the service manager or Ctrl-C stops it.
		if err := s.Run(); err != nil {
			rt.logger.Error("service run failed", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(exporterCmd)
	exporterCmd.Flags().StringVar(&expPort, "port", "9100", "Port to listen on")
	exporterCmd.Flags().StringVar(&serviceAction, "service", "", "Service action: install, uninstall, start, stop")
}
