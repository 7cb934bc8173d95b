package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"eicrcore/internal/maxzs"
)

func maxZsCommand(_ *app) *cobra.Command {
	var standard, curve, rating string
	var derating float64
	cmd := &cobra.Command{
		Use:   "maxzs",
		Short: "Look up the maximum earth fault loop impedance for a device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			calc := maxzs.New(maxzs.WithDerating(derating))
			v := calc.Field(standard, curve, rating)
			if v == "" {
				return fmt.Errorf("no tabulated limit for %q curve %q rating %q", standard, curve, rating)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), v)
			return err
		},
	}
	cmd.Flags().StringVar(&standard, "standard", "BS EN 60898", "device standard")
	cmd.Flags().StringVar(&curve, "curve", "B", "trip curve (B, C or D)")
	cmd.Flags().StringVar(&rating, "rating", "", "rated current in amps")
	cmd.Flags().Float64Var(&derating, "derating", maxzs.DefaultDerating, "factor applied to the tabulated value")
	_ = cmd.MarkFlagRequired("rating")
	return cmd
}
