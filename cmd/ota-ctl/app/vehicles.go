package app

import (
	"github.com/spf13/cobra"
)

func newVehiclesCommand(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "Register and list vehicles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all vehicles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			list, err := c.ListVehicles(cmd.Context())
			if err != nil {
				return err
			}
			printVehicles(cmd.OutOrStdout(), list...)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "register VEHICLE_ID MODEL VERSION STATUS",
		Short: "Register a vehicle",
		Args:  exactArgs(4, "VEHICLE_ID", "MODEL", "VERSION", "STATUS"),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			v, err := c.RegisterVehicle(cmd.Context(), args[0], args[1], args[2], args[3])
			if err != nil {
				return err
			}
			printVehicles(cmd.OutOrStdout(), *v)
			return nil
		},
	})

	return cmd
}
