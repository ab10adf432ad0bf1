package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fwojciec/mangadl"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	filter := mangadl.RecordFilter{Limit: c.Limit}
	if c.Website != "" {
		filter.Website = &c.Website
	}
	if c.Series != "" {
		filter.Series = &c.Series
	}
	if c.Failed {
		status := mangadl.StatusFailed
		filter.Status = &status
	}

	records, err := deps.History.FindRecords(deps.Ctx, filter)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(deps.Stdout, "No history recorded.")
		return nil
	}

	w := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format(time.DateTime), r.Status, r.Website, r.Series, r.Chapter, r.Reason)
	}
	return w.Flush()
}
