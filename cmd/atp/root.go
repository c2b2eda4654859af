package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/alexberlino/atp/internal/config"
	"github.com/alexberlino/atp/pkg/logger"
)

// cli carries state shared by every subcommand.
type cli struct {
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "atp",
		Short:         "ATP live ranking ingest",
		Long:          color.CyanString("atp fetches the live ATP ranking table, validates it and keeps a CSV dataset current."),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default: $ATP_CONFIG)")

	root.AddCommand(
		newRunCmd(c),
		newShowCmd(c),
		newServeCmd(c),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration (defaults -> optional file -> env) and
// initializes logging. Logs go to stderr so tables on stdout stay clean.
func (c *cli) setup(ctx context.Context) error {
	cfg, err := config.Load(ctx, c.cfgFile)
	if err != nil {
		return err
	}
	if err := logger.Init(
		logger.WithFormat(cfg.LogFormat),
		logger.WithLevel(cfg.LogLevel),
		logger.WithWriter(os.Stderr),
	); err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	c.cfg = cfg
	return nil
}
