package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/app"
	"github.com/kapu/santoral-go/pkg/errors"
)

var readingsCmd = &cobra.Command{
	Use:   "readings",
	Short: "The 'readings' subcommand builds and maintains the daily readings file.",
}

var (
	readingsSource string
	readingsFrom   string
	readingsTo     string
	structureYear  int
)

func init() {
	rootCmd.AddCommand(readingsCmd)
	readingsCmd.AddCommand(readingsRunCmd, readingsStructureCmd)

	flags := readingsRunCmd.Flags()
	flags.StringVar(&readingsSource, "source", app.ReadingsRSS, "readings source: "+strings.Join(app.ReadingsSources, ", "))
	flags.StringVar(&readingsFrom, "from", "", "first date, YYYY-MM-DD")
	flags.StringVar(&readingsTo, "to", "", "last date, YYYY-MM-DD (default: --from)")
	_ = readingsRunCmd.MarkFlagRequired("from")

	readingsStructureCmd.Flags().IntVar(&structureYear, "year", 0, "year to lay out")
	_ = readingsStructureCmd.MarkFlagRequired("year")
}

func validReadingsSource(name string) error {
	for _, known := range app.ReadingsSources {
		if strings.EqualFold(name, known) {
			return nil
		}
	}
	return errors.NewValidationError("unknown readings source, want one of "+strings.Join(app.ReadingsSources, ", "), "source", name)
}

var readingsRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetches the readings for a span of dates.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validReadingsSource(readingsSource); err != nil {
			return err
		}
		from, to, err := parseDateRange(readingsFrom, readingsTo)
		if err != nil {
			return err
		}

		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			runner, err := c.NewReadingsRunner(readingsSource)
			if err != nil {
				return err
			}
			summary, runErr := runner.Run(ctx, from, to)
			summary.Render(cmd.OutOrStdout())
			return runErr
		})
	},
}

var readingsStructureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Adds an empty row for every day of a year to the readings file.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validateYear(structureYear); err != nil {
			return err
		}
		return withContainer(cmd, func(_ context.Context, c *app.Container) error {
			created, err := c.Readings.CreateYear(structureYear)
			if err != nil {
				return err
			}
			c.Logger.Info("Readings structure created",
				zap.Int("year", structureYear),
				zap.Int("created", created),
				zap.String("path", c.Readings.Path()),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%d days added for %d\n", created, structureYear)
			return nil
		})
	},
}
