package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kapu/santoral-go/internal/app"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "The 'cache' subcommand works with the redis lookup cache.",
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drops every cached encyclopedia lookup.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			deleted, err := c.ClearCache(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d cached lookups removed\n", deleted)
			return nil
		})
	},
}
