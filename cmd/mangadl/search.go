package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/mangadl"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	src := deps.Sources.Get(c.Website)
	if src == nil {
		return mangadl.Errorf(mangadl.EINVALID, "unknown website %q (supported: %s)",
			c.Website, strings.Join(deps.Sources.List(), ", "))
	}

	results, err := src.Search(deps.Ctx, strings.Join(c.Query, " "), c.Limit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(deps.Stdout, "No results found.")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(deps.Stdout, "%2d. %s\n    %s\n", i+1, r.Title, r.URL)
	}
	return nil
}
