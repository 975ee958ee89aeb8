/*
main.go - bono command line entry point

PURPOSE:
  One binary for the breeder-farm bonus tool: the HTTP API used by the
  spreadsheet frontend, plus offline commands that run the same engines
  against files on disk.

COMMANDS:
  serve     Start the HTTP API
  join      Match a requester list against the master roster
  compute   Join, apply a plan document and write the payout workbook
  roles     Print a role share table

GLOBAL FLAGS:
  --config   TOML config file (default: bono.toml, optional)
  --verbose  Debug logging

EXAMPLES:
  bono serve --port 9090
  bono join --requesters solicitantes.xlsx --roster base.xlsx --not-found
  bono compute --requesters s.xlsx --roster base.xlsx --plan plan.yaml
  bono roles --process levante

SEE ALSO:
  - config/config.go: configuration keys
  - api/server.go: HTTP routes
  - factory/plan.go: plan document format
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/bono-engine/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries what PersistentPreRunE loaded to every subcommand.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.AppConfig
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "bono",
		Short: "Breeder-farm production bonus calculator",
		Long: `bono matches bonus requesters against the master roster, applies the
role share table and absence discounts per lot, and exports the payout
workbook. Run "bono serve" for the web API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			logger, err := newLogger(cfg.Log, a.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "TOML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newServeCmd(a),
		newJoinCmd(a),
		newComputeCmd(a),
		newRolesCmd(a),
	)
	return root
}

// newLogger builds a zap logger from the [log] section. --verbose forces
// debug level.
func newLogger(lc config.LogConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if lc.Level != "" {
		level, err := zap.ParseAtomicLevel(lc.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = level
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
