// Package status implements the "status" subcommand.
package status

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Compaile/ctrack/internal/settings"
	"github.com/Compaile/ctrack/pkg/cmd/common"
	"github.com/Compaile/ctrack/pkg/cmd/options"
)

type Options struct {
	*options.CommonOptions
}

func NewCommand(opts *options.CommonOptions) *cobra.Command {
	o := &Options{CommonOptions: opts}

	return &cobra.Command{
		Use:               "status",
		Short:             fmt.Sprintf("Check the %s daemon status", settings.CmdName),
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Run:               o.Run,
	}
}

func (o *Options) Run(_ *cobra.Command, _ []string) {
	if common.IsDaemonRunning() {
		pidData, _ := os.ReadFile(settings.PidFile)
		fmt.Printf("%s is running (PID %s)\n", settings.CmdName, pidData)
		return
	}
	fmt.Printf("%s is not running\n", settings.CmdName)
}
