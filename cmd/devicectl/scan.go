// cmd/devicectl/scan.go
package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"weighbridge-service/internal/discovery"
	serialscan "weighbridge-service/internal/discovery/serial"
	tcpscan "weighbridge-service/internal/discovery/tcp"
	"weighbridge-service/internal/model"
)

func newScanCmd(opts *rootOptions) *cobra.Command {
	var scanType string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List serial ports and probe catalog TCP devices",
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

			descs, err := provider.List(cmd.Context())
			if err != nil {
				return err
			}

			scanners := discovery.NewScannerManager(e.logger)
			scanners.RegisterScanner(serialscan.NewScanner(e.logger, nil))
			scanners.RegisterScanner(tcpscan.NewScanner(e.logger, func() []model.Descriptor { return descs }, tcpscan.Config{
				ConnTimeout: e.config.Device.Timeout,
			}))

			var ports []*discovery.Port
			if scanType == "all" {
				ports = scanners.ScanAll(cmd.Context())
			} else if ports, err = scanners.ScanByType(cmd.Context(), scanType); err != nil {
				return err
			}
			discovery.Claim(ports, descs)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PORT\tADDRESS\tREACHABLE\tDEVICES\tDETAIL")
			for _, p := range ports {
				detail := p.Error
				if detail == "" && p.VID != "" {
					detail = fmt.Sprintf("%s %s:%s", p.Description, p.VID, p.PID)
				}
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", p.PortType, p.Address, p.Reachable,
					strings.Join(p.DeviceCodes, ","), detail)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&scanType, "type", "all", "scanner type: all, serial or tcp")
	return cmd
}
