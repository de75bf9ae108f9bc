// cmd/devicectl/list.go
package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			provider, closeCatalog, err := e.catalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog()

			devices, err := provider.List(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), devices)
			}

			if len(devices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No devices configured")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tTYPE\tMODULE\tPORT\tPARAM")
			for _, d := range devices {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Code, d.DeviceType, d.ModuleCode, d.PortType, d.ParamString)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print descriptors as JSON")
	return cmd
}
