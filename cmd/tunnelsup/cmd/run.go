package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/psantana5/tunnelsup/internal/api"
	"github.com/psantana5/tunnelsup/internal/report"
	"github.com/psantana5/tunnelsup/internal/tunnel"
	"github.com/psantana5/tunnelsup/pkg/shutdown"
	"github.com/psantana5/tunnelsup/pkg/tracing"
)

var (
	statusAddr      string
	shutdownTimeout time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the tunnel and keep it up until SIGINT/SIGTERM",
	Long: `Run renders the stunnel configuration, launches stunnel and blocks until
the process is told to stop. On shutdown stunnel receives SIGTERM.

With ha_enabled=false nothing is launched; the status server still runs so
monitoring can tell the supervisor is alive.

Example:
  tunnelsup run --config /etc/tunnelsup/config.yaml
  TUNNELSUP_HA_ENABLED=true tunnelsup run --status-addr 127.0.0.1:9310`,
	RunE: runTunnel,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&statusAddr, "status-addr", "", "listen address for /healthz, /status, /runs and /metrics (overrides status_addr)")
	runCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "deadline for shutdown steps")
}

func runTunnel(cmd *cobra.Command, args []string) error {
	rt, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Close()

	if statusAddr != "" {
		rt.StatusAddr = statusAddr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := report.NewMetrics(reg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	// The only signal subscription. A signal during the readiness wait
	// aborts Start, which then reaps the half-started child itself; later
	// it ends WaitWithContext.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "tunnelsup",
		ServiceVersion: rootCmd.Version,
		Environment:    rt.Tracing.Environment,
		OTLPEndpoint:   rt.Tracing.Endpoint,
		Insecure:       rt.Tracing.Insecure,
		Enabled:        rt.Tracing.Enabled,
	})
	if err != nil {
		return err
	}

	probe, err := rt.Readiness.Probe()
	if err != nil {
		return err
	}

	sup := tunnel.New(logger,
		tunnel.WithBinary(rt.Binary),
		tunnel.WithTempDir(rt.TempDir),
		tunnel.WithProbe(probe),
		tunnel.WithRecorder(metrics),
		tunnel.WithTracer(provider.Tracer()),
	)

	mgr := shutdown.New(shutdownTimeout, logger)
	mgr.Register("tracing", provider.Shutdown)

	if rt.StatusAddr != "" {
		srv := api.NewServer(rt.StatusAddr, api.NewRouter(sup, metrics.History(), reg))
		go func() {
			logger.Info("Status server listening", map[string]interface{}{"addr": rt.StatusAddr})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Status server failed", map[string]interface{}{"error": err.Error()})
			}
		}()
		mgr.Register("status server", shutdown.StopHTTPServer(srv, "status"))
	}

	if err := sup.Start(ctx, rt.Settings); err != nil {
		mgr.Shutdown()
		return startError(err)
	}
	mgr.Register("tunnel", shutdown.Func(sup.Stop))

	if !rt.Settings.HAEnabled {
		logger.Info("HA disabled, supervisor idle")
	}

	if err := mgr.WaitWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// startError drops a Start failure caused by an interrupt during the
// readiness wait; that is a requested shutdown, not a failed start.
func startError(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
