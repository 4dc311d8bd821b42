// Package stop implements the "stop" subcommand.
package stop

import (
	"fmt"
	"os"
	"strconv"
	"syscall"
	"time"

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
		Use:               "stop",
		Short:             fmt.Sprintf("Stop the %s daemon", settings.CmdName),
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Run:               o.Run,
	}
}

func (o *Options) Run(_ *cobra.Command, _ []string) {
	pidData, err := os.ReadFile(settings.PidFile)
	if err != nil {
		fmt.Printf("%s not running or PID file not found\n", settings.CmdName)
		return
	}

	pid, err := strconv.Atoi(string(pidData))
	if err != nil {
		fmt.Println("invalid PID file")
		return
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		fmt.Println("process not found")
		return
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		fmt.Printf("failed to stop daemon: %v\n", err)
		return
	}

	for i := 0; i < 50; i++ {
		if !common.IsDaemonRunning() {
			fmt.Printf("%s stopped (PID %d)\n", settings.CmdName, pid)
			os.Remove(settings.PidFile)
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	process.Kill()
	os.Remove(settings.PidFile)
	fmt.Printf("%s force killed (PID %d)\n", settings.CmdName, pid)
}
