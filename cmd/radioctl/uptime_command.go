package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"onestopradio/internal/metrics"
)

func newUptimeCommand(ctx *commandContext) *cobra.Command {
	var panelFlag string

	cmd := &cobra.Command{
		Use:   "uptime",
		Short: "Show per-service uptime over recorded history",
		RunE: func(cmd *cobra.Command, args []string) error {
			var services []metrics.ServiceUptime
			if err := ctx.get("/api/uptime?panel="+panelFlag, &services); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, services)
			}

			rows := make([][]string, 0, len(services))
			for _, service := range services {
				rows = append(rows, []string{
					service.Name,
					fmt.Sprintf("%.2f%%", service.UptimePercent),
					fmt.Sprintf("%d", service.Passing),
					fmt.Sprintf("%d", service.Failing),
					service.LastStatus,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Service", "Uptime", "Passing", "Failing", "Last"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&panelFlag, "panel", "services", "Panel to summarise (services or encoding)")
	return cmd
}
