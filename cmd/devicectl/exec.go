// cmd/devicectl/exec.go
package main

import (
	"context"

	"github.com/spf13/cobra"

	"weighbridge-service/internal/model"
	"weighbridge-service/pkg/driver"
)

func newExecCmd(opts *rootOptions) *cobra.Command {
	var (
		text string
		role string
	)

	cmd := &cobra.Command{
		Use:   "exec <code> <token>",
		Short: "Run one command on a device and print the result",
		Long: `Run one command on a device and print the result as JSON.

Device-reported problems are part of the result (nonzero error_nr).
Configuration and connection problems are returned as errors.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := model.ParseRole(role)
			if err != nil {
				return err
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

			ctx, cancel := context.WithTimeout(cmd.Context(), e.config.Device.CommandTimeout)
			defer cancel()

			result, err := s.ExecuteCommand(ctx, r, driver.Command{Token: args[1], Text: text})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "command text, e.g. the message for SHOW")
	cmd.Flags().StringVarP(&role, "role", "r", "", "expected device role: scale, card or display")
	return cmd
}
