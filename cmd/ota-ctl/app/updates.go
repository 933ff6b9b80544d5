package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/otahub/internal/otahub/client"
)

func newUpdatesCommand(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "updates",
		Short: "Assign OTA updates and report their progress",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "assign VEHICLE_ID FROM_VERSION TO_VERSION",
		Short: "Assign an update to a vehicle",
		Args:  exactArgs(3, "VEHICLE_ID", "FROM_VERSION", "TO_VERSION"),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			u, err := c.AssignUpdate(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			printUpdates(cmd.OutOrStdout(), *u)
			return nil
		},
	})

	cmd.AddCommand(
		newLifecycleCommand(g, "start", "Mark a pending update as in progress", (*client.Client).StartUpdate),
		newLifecycleCommand(g, "complete", "Mark an update as completed", (*client.Client).CompleteUpdate),
		newLifecycleCommand(g, "fail", "Mark an update as failed", (*client.Client).FailUpdate),
	)
	return cmd
}

type lifecycleCall func(c *client.Client, ctx context.Context, id int64) (*client.Update, error)

func newLifecycleCommand(g *globalOptions, name, short string, call lifecycleCall) *cobra.Command {
	return &cobra.Command{
		Use:   name + " UPDATE_ID",
		Short: short,
		Args:  exactArgs(1, "UPDATE_ID"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid update id %q", args[0])
			}
			c, err := g.client()
			if err != nil {
				return err
			}
			u, err := call(c, cmd.Context(), id)
			if err != nil {
				return err
			}
			printUpdates(cmd.OutOrStdout(), *u)
			return nil
		},
	}
}

func newHistoryCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history VEHICLE_ID",
		Short: "Show the update history of a vehicle, most recent first",
		Args:  exactArgs(1, "VEHICLE_ID"),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			history, err := c.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printUpdates(cmd.OutOrStdout(), history...)
			return nil
		},
	}
}
