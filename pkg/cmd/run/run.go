// Package run implements the "run" subcommand: it drives a synthetic,
// goroutine-heavy workload through ctrack.Scope/ScopeNamed and reports the
// recorded timings when done.
package run

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Compaile/ctrack/internal/output"
	"github.com/Compaile/ctrack/internal/settings"
	"github.com/Compaile/ctrack/pkg/cmd/common"
	"github.com/Compaile/ctrack/pkg/cmd/options"
	"github.com/Compaile/ctrack/pkg/ctrack"
	"github.com/Compaile/ctrack/pkg/healthcheck"
	"github.com/Compaile/ctrack/pkg/report"
)

const CmdName = "run"

type Options struct {
	detach     bool
	status     bool
	workers    int
	iterations int
	saveEvents bool

	*options.CommonOptions
}

func NewCommand(opts *options.CommonOptions) *cobra.Command {
	o := &Options{CommonOptions: opts}

	cmd := &cobra.Command{
		Use:   CmdName,
		Short: "Run the sample instrumented workload",
		Long: fmt.Sprintf(`
%s runs a synthetic, concurrent workload instrumented with ctrack scopes
and prints (or persists) the resulting profiling report.
`, CmdName),
		DisableAutoGenTag: true,
		RunE:              o.Run,
	}

	cmd.Flags().BoolVarP(&o.detach, "detach", "d", false, fmt.Sprintf("Run %s as a daemon", settings.CmdName))
	cmd.Flags().BoolVar(&o.status, "status", true, "Periodically print a status line while running")
	cmd.Flags().IntVar(&o.workers, "workers", 8, "Number of concurrent worker goroutines")
	cmd.Flags().IntVar(&o.iterations, "iterations", 200, "Number of iterations per worker")
	cmd.Flags().BoolVar(&o.saveEvents, "save-events", true, fmt.Sprintf("Persist raw events (as %s)", settings.EventsFileName))

	return cmd
}

func (o *Options) Run(_ *cobra.Command, _ []string) error {
	if o.detach {
		return o.daemonize()
	}

	os.WriteFile(settings.PidFile, []byte(strconv.Itoa(os.Getpid())), 0644)
	defer os.Remove(settings.PidFile)

	hc := healthcheck.NewHealthCheckServer(settings.ReadySockFile, o.Logger)
	if err := hc.InitializeListener(o.Ctx); err != nil {
		o.Logger.Warn().Err(err).Msg("failed to start readiness listener")
	} else {
		defer hc.ShutdownListener()
	}

	var statusStop func()
	if o.status {
		statusStop = startStatusLoop(o.Ctx)
		defer statusStop()
	}

	hc.NotifyReadiness()

	runWorkload(o.Ctx, o.workers, o.iterations)

	tables, err := ctrack.ResultGetTables()
	if err != nil {
		return errors.Wrap(err, "failed to compute profiling report")
	}

	if statusStop != nil {
		statusStop()
		fmt.Println()
	}

	if err := report.Summary(os.Stdout, tables, report.WithColor(true)); err != nil {
		return errors.Wrap(err, "failed to print summary")
	}
	if err := report.Details(os.Stdout, tables); err != nil {
		return errors.Wrap(err, "failed to print details")
	}

	if o.saveEvents {
		if err := ctrack.SaveEventsToFile(settings.EventsFileName); err != nil {
			o.Logger.Error().Err(err).Msg("failed to save events")
		}
	}

	return nil
}

func (o *Options) daemonize() error {
	if common.IsDaemonRunning() {
		fmt.Println("daemon already running")
		return nil
	}

	args := []string{CmdName}
	args = append(args, fmt.Sprintf("--workers=%d", o.workers))
	args = append(args, fmt.Sprintf("--iterations=%d", o.iterations))
	args = append(args, fmt.Sprintf("--status=%s", strconv.FormatBool(o.status)))
	args = append(args, fmt.Sprintf("--save-events=%s", strconv.FormatBool(o.saveEvents)))

	cmd := exec.Command(os.Args[0], args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if settings.LogFile != "" {
		f, err := os.OpenFile(settings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			o.Logger.Error().Err(err).Msg("failed to open log file")
			return err
		}
		cmd.Stdout = f
		cmd.Stderr = f
	}

	if err := cmd.Start(); err != nil {
		o.Logger.Error().Err(err).Msgf("failed to start %s", settings.CmdName)
		return err
	}

	if err := os.WriteFile(settings.PidFile, []byte(strconv.Itoa(cmd.Process.Pid)), 0644); err != nil {
		o.Logger.Error().Err(err).Msg("failed to write PID file")
		return err
	}

	return nil
}

// startStatusLoop prints a refreshing, right-aligned status line until the
// returned stop function is called or ctx is done, whichever comes first.
func startStatusLoop(ctx context.Context) func() {
	loopCtx, cancel := context.WithCancel(ctx)
	go output.StatusBar(loopCtx, 500*time.Millisecond, func() {
		n := ctrack.TrackedGoroutines()
		output.PrintRight(output.PrettyProfilerStatus(n, 0, 0))
	})
	return cancel
}

// runWorkload is the instrumented workload itself: each worker descends a
// few levels deep through nested named scopes, exercising both the shallow and
// the nested call-site cases the engine's aggregator has to reconstruct.
func runWorkload(ctx context.Context, workers, iterations int) {
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(id) + 1))
			for i := 0; i < iterations; i++ {
				select {
				case <-ctx.Done():
					return
				default:
				}
				workItem(rng)
			}
		}(w)
	}
	wg.Wait()
}

func workItem(rng *rand.Rand) {
	defer ctrack.ScopeNamed("work-item")()
	fetch(rng)
	process(rng)
}

func fetch(rng *rand.Rand) {
	defer ctrack.ScopeNamed("fetch")()
	time.Sleep(time.Duration(50+rng.Intn(200)) * time.Microsecond)
}

func process(rng *rand.Rand) {
	defer ctrack.ScopeNamed("process")()
	transform(rng)
	if rng.Intn(4) == 0 {
		validate(rng)
	}
}

func transform(rng *rand.Rand) {
	defer ctrack.ScopeNamed("transform")()
	time.Sleep(time.Duration(20+rng.Intn(80)) * time.Microsecond)
}

func validate(rng *rand.Rand) {
	defer ctrack.ScopeNamed("validate")()
	time.Sleep(time.Duration(10+rng.Intn(40)) * time.Microsecond)
}
