package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	service "github.com/alexberlino/atp/internal/app"
	"github.com/alexberlino/atp/pkg/logger"
	"github.com/alexberlino/atp/pkg/metrics"
)

const pushTimeout = 10 * time.Second

func newRunCmd(c *cli) *cobra.Command {
	var printSample bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch the live ranking once and merge it into the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, closer, err := service.FromConfig(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := closer(); cerr != nil {
					logger.Get().Warn(ctx, "closing publishers failed", logger.Error(cerr))
				}
			}()

			rep, runErr := svc.Run(ctx)
			printReport(cmd.OutOrStdout(), rep, runErr)
			if printSample && len(rep.Sample) > 0 {
				renderEntries(cmd.OutOrStdout(), rep.Sample, time.Time{}, false)
			}

			if url := c.cfg.Metrics.PushgatewayURL; url != "" {
				pushMetrics(ctx, url, c.cfg.Metrics.JobName)
			}
			return runErr
		},
	}
	cmd.Flags().BoolVar(&printSample, "print", false, "print the leading entries of the fetched snapshot")
	return cmd
}

// pushMetrics is best effort; a failed push never changes the exit status.
func pushMetrics(ctx context.Context, url, job string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()
	if err := metrics.Push(ctx, url, job); err != nil {
		logger.Get().Warn(ctx, "metrics push failed", logger.String("url", url), logger.Error(err))
	}
}

func printReport(w io.Writer, rep service.Report, err error) {
	label := color.New(color.FgGreen)
	line := func(name, format string, args ...any) {
		label.Fprintf(w, "%-12s", name)
		fmt.Fprintf(w, format+"\n", args...)
	}

	line("Run:", "%s", rep.RunID)
	line("Fetch:", "%d attempt(s), state %s, %d rows (%d valid, %d invalid, %d duplicate)",
		rep.Fetch.Attempts, rep.Fetch.State, rep.Fetch.Stats.Rows,
		rep.Fetch.Stats.Valid, rep.Fetch.Stats.Invalid, rep.Fetch.Stats.Duplicates)

	if err != nil && !errors.Is(err, service.ErrPublish) {
		fmt.Fprintln(w, color.RedString("Run failed after %s; dataset left untouched", rep.Elapsed.Round(time.Millisecond)))
		return
	}

	line("Merge:", "%s, %d entries", rep.Merge.Outcome, rep.Merge.Entries)
	if rep.Merge.BackupPath != "" {
		line("Backup:", "%s", rep.Merge.BackupPath)
	}
	if rep.Merge.ArchivePath != "" {
		line("Archive:", "%s", rep.Merge.ArchivePath)
	}
	if !rep.Merge.UpdatedAt.IsZero() {
		line("Updated:", "%s", rep.Merge.UpdatedAt.Format(time.DateTime))
	}
	switch {
	case rep.PublishErr != nil:
		fmt.Fprintln(w, color.YellowString("Publish failed: %v", rep.PublishErr))
	case rep.Published:
		line("Published:", "yes")
	}
	line("Elapsed:", "%s", rep.Elapsed.Round(time.Millisecond))
}
