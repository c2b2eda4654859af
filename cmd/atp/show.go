package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/alexberlino/atp/internal/adapters/repository"
	service "github.com/alexberlino/atp/internal/app"
	"github.com/alexberlino/atp/internal/domain/model"
)

const defaultShowLimit = 20

func newShowCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the persisted dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			ctx := cmd.Context()
			view := repository.NewView(service.NewStore(c.cfg.Dataset))
			if err := view.Refresh(ctx); err != nil {
				return err
			}
			if view.Count(ctx) == 0 {
				return fmt.Errorf("%w: %s", repository.ErrNoDataset, c.cfg.Dataset.Path)
			}
			entries, err := view.TopN(ctx, limit)
			if err != nil {
				return err
			}
			at, ok := view.UpdatedAt(ctx)
			renderEntries(cmd.OutOrStdout(), entries, at, ok)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultShowLimit, "number of entries to print")
	return cmd
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func renderEntries(w io.Writer, entries []model.Entry, updatedAt time.Time, hasStamp bool) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Rank", "Player", "Age", "Country", "Points", "Change"})
	for _, e := range entries {
		change := ""
		if e.Change != nil {
			change = fmt.Sprintf("%+d", *e.Change)
		}
		t.AppendRow(table.Row{e.Rank, e.Name, e.Age, e.Country, e.Points, change})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	if hasStamp {
		t.SetCaption("last updated %s", updatedAt.Format(time.DateTime))
	}
	t.AppendFooter(table.Row{"", "entries", strconv.Itoa(len(entries))})
	t.Render()
}
