// Package report implements the "report" subcommand: it loads a persisted
// event file and prints a table or JSON report over it.
package report

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Compaile/ctrack/internal/settings"
	"github.com/Compaile/ctrack/pkg/cmd/options"
	"github.com/Compaile/ctrack/pkg/ctrack"
	"github.com/Compaile/ctrack/pkg/report"
)

type Options struct {
	file string
	json bool

	*options.CommonOptions
}

func NewCommand(opts *options.CommonOptions) *cobra.Command {
	o := &Options{CommonOptions: opts}

	cmd := &cobra.Command{
		Use:               "report",
		Short:             "Print a report from a persisted events file",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		RunE:              o.Run,
	}

	cmd.Flags().StringVarP(&o.file, "file", "f", settings.EventsFileName, "Path to a persisted events file")
	cmd.Flags().BoolVar(&o.json, "json", false, fmt.Sprintf("Write a JSON report (as %s) instead of tables", settings.ReportFileName))

	return cmd
}

func (o *Options) Run(_ *cobra.Command, _ []string) error {
	tables, err := ctrack.LoadAndReport(o.file)
	if err != nil {
		return errors.Wrapf(err, "failed to load %s", o.file)
	}

	if !o.json {
		if err := report.Summary(os.Stdout, tables, report.WithColor(true)); err != nil {
			return errors.Wrap(err, "failed to print summary")
		}
		return report.Details(os.Stdout, tables)
	}

	f, err := os.Create(settings.ReportFileName)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", settings.ReportFileName)
	}
	defer f.Close()

	if err := report.NewJSONReport(tables).WriteReport(f); err != nil {
		return errors.Wrap(err, "failed to write JSON report")
	}

	fmt.Printf("wrote %s\n", settings.ReportFileName)
	return nil
}
