package cmd

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/MinterTeam/minter-harness/api"
	"github.com/MinterTeam/minter-harness/core/statistics"
	"github.com/MinterTeam/minter-harness/harness"
	"github.com/MinterTeam/minter-harness/log"
	"github.com/MinterTeam/minter-harness/version"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Serve runs a network with the HTTP API until interrupted
var Serve = &cobra.Command{
	Use:   "serve",
	Short: "Run a local network with the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	logger := log.With("module", "main")

	var options []harness.Option
	var registry *prometheus.Registry
	if cfg.Instrumentation.Prometheus {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		statisticData := statistics.New(prometheus.WrapRegistererWithPrefix(cfg.Instrumentation.Namespace+"_", registry))
		options = append(options, harness.WithNetworkOptions(func(opts *harness.NetworkOptions) {
			opts.StatisticData = statisticData
		}))
	}

	h, err := newHarness(options...)
	if err != nil {
		return err
	}
	defer h.Close()

	apiAddr, err := listenAddress(cfg.APIListenAddress)
	if err != nil {
		return err
	}

	servers := []*http.Server{{
		Addr:    apiAddr,
		Handler: api.NewService(h, log.Logger(), version.Version).Handler(),
	}}
	if registry != nil {
		servers = append(servers, &http.Server{
			Addr:    cfg.Instrumentation.PrometheusListenAddr,
			Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{MaxRequestsInFlight: cfg.Instrumentation.MaxOpenConnections}),
		})
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, server := range servers {
		server := server
		g.Go(func() error {
			logger.Info("Starting HTTP server", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return errors.Wrapf(err, "serve %s", server.Addr)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, server := range servers {
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to stop HTTP server", "addr", server.Addr, "err", err)
			}
		}
		return nil
	})

	return g.Wait()
}

// listenAddress converts tcp://host:port into host:port
func listenAddress(addr string) (string, error) {
	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		if _, _, splitErr := net.SplitHostPort(addr); splitErr == nil {
			return addr, nil
		}
		return "", errors.Errorf("invalid listen address %q", addr)
	}

	return u.Host, nil
}
