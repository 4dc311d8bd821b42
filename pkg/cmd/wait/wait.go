// Package wait implements the "wait" subcommand: it blocks until the
// running daemon signals readiness over its health-check socket, or until a
// timeout elapses.
package wait

import (
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Compaile/ctrack/internal/settings"
	"github.com/Compaile/ctrack/pkg/cmd/options"
	"github.com/Compaile/ctrack/pkg/healthcheck"
)

const CmdName = "wait"

type Options struct {
	socketPath string
	timeout    time.Duration

	*options.CommonOptions
}

func NewCommand(opts *options.CommonOptions) *cobra.Command {
	o := &Options{CommonOptions: opts}

	cmd := &cobra.Command{
		Use:               CmdName,
		Short:             fmt.Sprintf("Wait for the %s daemon to become ready", settings.CmdName),
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		RunE:              o.Run,
	}

	cmd.Flags().StringVarP(&o.socketPath, "socket-path", "s", settings.ReadySockFile,
		fmt.Sprintf("Path to the %s readiness socket file", settings.CmdName))
	cmd.Flags().DurationVar(&o.timeout, "timeout", 120*time.Second, "Timeout")

	return cmd
}

func (o *Options) Run(_ *cobra.Command, _ []string) error {
	start := time.Now()
	retryInterval := 500 * time.Millisecond

	o.Logger.Info().Msg("waiting for the daemon to be ready")

	for {
		if time.Since(start) >= o.timeout {
			return errors.New("timeout waiting for daemon readiness")
		}

		info, err := os.Stat(o.socketPath)
		if err != nil {
			if os.IsNotExist(err) {
				time.Sleep(retryInterval)
				continue
			}
			return errors.Wrap(err, "error checking socket")
		}
		if info.Mode()&os.ModeSocket == 0 {
			return errors.Errorf("path exists but is not a Unix socket: %s", o.socketPath)
		}

		conn, err := net.DialTimeout("unix", o.socketPath, retryInterval)
		if err != nil {
			if errors.Is(err, syscall.EACCES) {
				return errors.Wrap(err, "failed connecting")
			}
			time.Sleep(retryInterval)
			continue
		}

		buf := make([]byte, 1)
		conn.SetReadDeadline(time.Now().Add(retryInterval))
		n, err := conn.Read(buf)
		conn.Close()
		if err != nil || n == 0 {
			time.Sleep(retryInterval)
			continue
		}

		if buf[0] == healthcheck.ReadyMsg {
			o.Logger.Info().Msg("daemon is ready")
			return nil
		}

		time.Sleep(retryInterval)
	}
}
