package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func (c *cli) doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "doctor",
		Short:       "Check the backend, the session and the token store",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSetup: setupNoRestore},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Session.Restore(cmd.Context()); err != nil {
				fmt.Fprintln(c.errOut, "Warning:", err)
			}
			report := c.app.Health(cmd.Context())

			names := make([]string, 0, len(report.Checks))
			for name := range report.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(c.out, "%-9s %s\n", name+":", report.Checks[name])
			}
			if !report.Healthy() {
				return errors.New("some checks failed")
			}
			return nil
		},
	}
}
