package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
)

var errBlocking = errors.New("schedule has blocking violations")

func checkCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <formID>",
		Short: "Evaluate the compliance rules for a stored form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeSvc, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = closeSvc(ctx) }()

			res, err := svc.Compliance(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if res.HasBlocking() {
				return errBlocking
			}
			return nil
		},
	}
}
