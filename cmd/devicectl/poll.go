// cmd/devicectl/poll.go
package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"weighbridge-service/internal/model"
	"weighbridge-service/pkg/driver"
)

func newPollCmd(opts *rootOptions) *cobra.Command {
	var (
		text     string
		role     string
		delay    time.Duration
		interval time.Duration
		count    int
	)

	cmd := &cobra.Command{
		Use:   "poll <code> <token>",
		Short: "Repeat a command and print every result",
		Long: `Repeat a command on a fixed cadence and print each result as a JSON line.

Polling stops after --count results, or on Ctrl-C when --count is 0.
Failed ticks are printed as results with error_nr -1 and the next tick
reconnects.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := model.ParseRole(role)
			if err != nil {
				return err
			}
			if count < 0 {
				return fmt.Errorf("--count must not be negative")
			}

			e, err := opts.load()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			s, err := e.session(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			if interval <= 0 {
				interval = e.config.Device.PollInterval
			}

			results := make(chan driver.Result, 16)
			if _, err := s.StartPolling(r, driver.Command{Token: args[1], Text: text}, func(result driver.Result) {
				select {
				case results <- result:
				default:
				}
			}, delay, interval); err != nil {
				return err
			}
			defer s.StopPolling()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			for n := 0; count == 0 || n < count; n++ {
				select {
				case <-ctx.Done():
					return nil
				case result := <-results:
					if err := printJSON(cmd.OutOrStdout(), result); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "command text")
	cmd.Flags().StringVarP(&role, "role", "r", "", "expected device role: scale, card or display")
	cmd.Flags().DurationVar(&delay, "delay", 0, "delay before the first tick")
	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "time between ticks (default device.poll_interval)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after this many results, 0 polls until interrupted")
	return cmd
}
