// tutord is the continuous learning daemon for the language tutor: it
// keeps per-category pattern models trained from accumulated samples and
// reports on their health.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ashgrovelabs/tutord/internal/config"
	"github.com/ashgrovelabs/tutord/internal/engine"
	"github.com/ashgrovelabs/tutord/internal/logging"
	"github.com/ashgrovelabs/tutord/internal/orchestrator"
	"github.com/ashgrovelabs/tutord/internal/replenish"
	"github.com/ashgrovelabs/tutord/internal/sample"
	"github.com/ashgrovelabs/tutord/internal/store"
	"github.com/ashgrovelabs/tutord/internal/worker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tutord",
	Short: "Continuous learning daemon for the language tutor",
	Long: `tutord keeps the tutor's pattern models fresh: it tops up training
sample pools, retrains models when the policy says so, and exposes model
health over Prometheus.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the continuous learning loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon()
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print model health for every task category",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor(cmd.Context())
	},
}

var trainCmd = &cobra.Command{
	Use:   "train [category]",
	Short: "Force a training run for one task category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrain(cmd.Context(), sample.TaskCategory(args[0]))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tutord version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tutord %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// deps holds everything the daemon wires together.
type deps struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	nats   *nats.Conn
	orch   *orchestrator.Orchestrator
}

// Close releases dependencies in reverse initialization order.
func (d *deps) Close() {
	if d.nats != nil {
		d.nats.Close()
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.logger.Warn("closing store", zap.Error(err))
		}
	}
	if d.logger != nil {
		_ = logging.Sync(d.logger)
	}
}

func initDeps() (*deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	d := &deps{cfg: cfg, logger: logger}

	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.store = st

	var accel worker.Accelerator
	if cfg.NATS.URL != "" {
		conn, err := nats.Connect(cfg.NATS.URL,
			nats.Name("tutord"),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second))
		if err != nil {
			// The accelerator is an optimization. A dead broker must not
			// keep models from training.
			logger.Warn("nats connect failed, accelerator disabled",
				zap.String("url", cfg.NATS.URL), zap.Error(err))
		} else {
			d.nats = conn
			accel = worker.NewNATSAccelerator(conn, logger.Named("accel"))
		}
	}

	trainer := engine.NewTrainer(st, cfg.TrainerConfig(), logger.Named("trainer"))
	replenisher := replenish.New(st, cfg.Replenish.Seed, logger.Named("replenish"))
	d.orch = orchestrator.New(st, trainer, replenisher, accel,
		cfg.Policy, cfg.OrchestratorConfig(), logger.Named("orchestrator"))

	return d, nil
}

func runDaemon() error {
	d, err := initDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if d.cfg.Metrics.Addr != "" {
		go serveMetrics(ctx, d.cfg.Metrics.Addr, d.logger)
	}

	d.logger.Info("tutord starting", zap.String("version", Version))
	if err := d.orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func serveMetrics(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics endpoint failed", zap.Error(err))
	}
}

func runMonitor(ctx context.Context) error {
	d, err := initDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	statuses, err := d.orch.Status(ctx)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runTrain(ctx context.Context, cat sample.TaskCategory) error {
	if !cat.Valid() {
		return fmt.Errorf("unknown task category %q", cat)
	}

	d, err := initDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	result := d.orch.TrainNow(ctx, cat)
	if result.Err != "" {
		return errors.New(result.Err)
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
