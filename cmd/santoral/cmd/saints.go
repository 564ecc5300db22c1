package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/app"
)

var saintsCmd = &cobra.Command{
	Use:   "saints",
	Short: "The 'saints' subcommand builds and maintains the saints calendar file.",
}

var (
	saintsRange  rangeFlags
	saintsImages bool
	saintsYes    bool
	saintsSource string
)

func init() {
	rootCmd.AddCommand(saintsCmd)
	saintsCmd.AddCommand(saintsRunCmd, saintsRescoreCmd, saintsDedupeCmd)

	flags := saintsRunCmd.Flags()
	flags.BoolVar(&saintsRange.Year, "year", false, "process the whole calendar year")
	flags.IntVar(&saintsRange.Month, "month", 0, "process one month (1-12)")
	flags.IntVar(&saintsRange.Day, "day", 0, "with --month, process a single day")
	flags.StringVar(&saintsRange.From, "from", "", "first day of a range, MM-DD")
	flags.StringVar(&saintsRange.To, "to", "", "last day of a range, MM-DD")
	flags.BoolVar(&saintsImages, "images", false, "download portrait images")
	flags.BoolVar(&saintsYes, "yes", false, "skip the confirmation before a full-year run")
	flags.StringVar(&saintsSource, "source", "", "saints site adapter: wikipedia or calendar (default from SANTORAL_SOURCE)")
}

var saintsRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetches saints for a year, a month, a day or a range of days.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rng, full, err := saintsRange.dayRange()
		if err != nil {
			return err
		}
		if full && !saintsYes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "A full-year run takes several hours.") {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}

		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			runner, err := c.NewSaintsRunner(saintsSource, saintsImages)
			if err != nil {
				return err
			}
			summary, runErr := runner.Run(ctx, rng)
			summary.Render(cmd.OutOrStdout())
			return runErr
		})
	},
}

var saintsRescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recomputes priority and tags of every stored saint.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd, func(_ context.Context, c *app.Container) error {
			changed, err := c.Saints.Rescore(c.Classifier.Score)
			if err != nil {
				return err
			}
			c.Logger.Info("Rescore finished", zap.Int("changed", changed), zap.String("path", c.Saints.Path()))
			fmt.Fprintf(cmd.OutOrStdout(), "%d entries rescored\n", changed)
			return nil
		})
	},
}

var saintsDedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Rewrites the saints file keeping the first row of every (month, day, name).",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd, func(_ context.Context, c *app.Container) error {
			removed, err := c.Saints.Dedupe()
			if err != nil {
				return err
			}
			c.Logger.Info("Dedupe finished", zap.Int("removed", removed), zap.String("path", c.Saints.Path()))
			fmt.Fprintf(cmd.OutOrStdout(), "%d duplicate rows removed\n", removed)
			return nil
		})
	},
}
