package main

import (
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/dmetrics"
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

// Version value, injected via go build `ldflags` at build time
var version = "dev"

func init() {
	logging.InstantiateLoggers(logging.WithDefaultLevel(zap.InfoLevel))
}

func main() {
	Run("fieldhash", "Deterministic field based hashing of JSONL records",
		hashCmd,
		injectCmd,
		listEntitiesCmd,

		ConfigureViper("FIELDHASH"),
		ConfigureVersion(version),

		PersistentFlags(
			func(flags *pflag.FlagSet) {
				flags.Duration("delay-before-start", 0, "[OPERATOR] Amount of time to wait before starting any internal processes")
				flags.String("metrics-listen-addr", "", "[OPERATOR] If non-empty, the process will listen on this address for Prometheus metrics request(s)")
				flags.String("pprof-listen-addr", "", "[OPERATOR] If non-empty, the process will listen on this address for pprof analysis (see https://golang.org/pkg/net/http/pprof/)")
			},
		),
		AfterAllHook(func(cmd *cobra.Command) {
			cmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
				if delay := viper.GetDuration("global-delay-before-start"); delay > 0 {
					zlog.Info("sleeping to respect delay before start setting", zap.Duration("delay", delay))
					time.Sleep(delay)
				}

				startOperatorServers(
					viper.GetString("global-metrics-listen-addr"),
					viper.GetString("global-pprof-listen-addr"),
				)
			}
		}),
	)
}

// startOperatorServers serves Prometheus metrics and pprof in the
// background, an empty address leaves the matching server off.
func startOperatorServers(metricsAddr, pprofAddr string) {
	if metricsAddr != "" {
		zlog.Info("starting prometheus metrics server", zap.String("listen_addr", metricsAddr))
		go dmetrics.Serve(metricsAddr)
	}

	if pprofAddr != "" {
		go func() {
			zlog.Info("starting pprof server", zap.String("listen_addr", pprofAddr))
			if err := http.ListenAndServe(pprofAddr, nil); err != nil {
				zlog.Debug("unable to start profiling server", zap.Error(err), zap.String("listen_addr", pprofAddr))
			}
		}()
	}
}
