package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ochem-lab-service/internal/config"
	"ochem-lab-service/internal/timer"
)

// NewFocusCmd runs the pomodoro timer in the terminal.
func NewFocusCmd(configPath *string) *cobra.Command {
	var cycles int
	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Run a pomodoro focus timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runFocus(ctx, cmd.OutOrStdout(), timer.Real(), focusDurations(cfg), cycles)
		},
	}
	cmd.Flags().IntVar(&cycles, "cycles", 1, "pomodoros to complete before exiting")
	return cmd
}

func focusDurations(cfg config.Config) timer.Durations {
	d := timer.DefaultDurations()
	return timer.Durations{
		Pomodoro:   config.TTLDuration(cfg.Focus.Pomodoro, d.Pomodoro),
		ShortBreak: config.TTLDuration(cfg.Focus.ShortBreak, d.ShortBreak),
		LongBreak:  config.TTLDuration(cfg.Focus.LongBreak, d.LongBreak),
	}
}

// runFocus prints the clock once a minute and on every mode change. It returns
// after cycles pomodoros and their following break.
func runFocus(ctx context.Context, out io.Writer, sched timer.Scheduler, durations timer.Durations, cycles int) error {
	p := timer.NewPomodoro(sched, durations)
	done := make(chan struct{})
	events := make(chan string, 4)

	p.OnTick(func(s timer.State) {
		if s.Remaining%time.Minute == 0 {
			select {
			case events <- fmt.Sprintf("%s %s", s.Mode, s.Clock()):
			default:
			}
		}
	})
	p.OnComplete(func(finished timer.Mode, next timer.State) {
		events <- fmt.Sprintf("%s finished, %d pomodoros, next %s %s", finished, next.Stats.PomodorosCompleted, next.Mode, next.Clock())
		if finished != timer.ModePomodoro && next.Stats.PomodorosCompleted >= cycles {
			close(done)
			return
		}
		p.Start()
	})

	fmt.Fprintf(out, "%s %s\n", timer.ModePomodoro, p.State().Clock())
	p.Start()
	defer p.Pause()

	for {
		select {
		case line := <-events:
			fmt.Fprintln(out, line)
		case <-done:
			for {
				select {
				case line := <-events:
					fmt.Fprintln(out, line)
				default:
					return nil
				}
			}
		case <-ctx.Done():
			s := p.State()
			fmt.Fprintf(out, "stopped: %d pomodoros, %s focused\n", s.Stats.PomodorosCompleted, s.Stats.FocusTime)
			return nil
		}
	}
}
