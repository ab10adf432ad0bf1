package main

import (
	"fmt"
)

// Run executes the info command.
func (c *InfoCmd) Run(deps *Dependencies) error {
	series, err := resolve(deps, c.URL)
	if err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "# %s\n\n", series.Name)
	fmt.Fprintf(deps.Stdout, "Website: %s\nURL: %s\n", series.Website, series.URL)

	desc, err := deps.Converter.Convert(series.Description)
	if err != nil {
		deps.Logger.Warn("convert description", "err", err)
	} else if desc != "" {
		fmt.Fprintf(deps.Stdout, "\n%s\n", desc)
	}

	fmt.Fprintf(deps.Stdout, "\nChapters (%d):\n", len(series.Chapters))
	for _, ch := range series.Chapters {
		fmt.Fprintf(deps.Stdout, "- %s\n", ch.Name)
	}
	return nil
}
