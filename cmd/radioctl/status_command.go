package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"onestopradio/internal/console"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current console snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			var snapshot console.Snapshot
			if err := ctx.get("/api/status", &snapshot); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, snapshot)
			}

			out := cmd.OutOrStdout()
			printPanel(out, "Service Diagnostics", snapshot.Services)
			printPanel(out, "Audio Encoding Test", snapshot.Encoding)

			if snapshot.Connectivity != nil {
				c := snapshot.Connectivity
				if c.OK {
					fmt.Fprintf(out, "\nWebSocket target %s reachable (%d ms)\n", c.Target, c.LatencyMs)
				} else {
					fmt.Fprintf(out, "\nWebSocket target %s unreachable: %s\n", c.Target, c.Error)
				}
			}
			return nil
		},
	}
}

func printPanel(out io.Writer, title string, panel console.PanelState) {
	fmt.Fprintf(out, "%s — %s (%s)\n", title, panel.Summary.Label, panel.Summary.State)
	rows := make([][]string, 0, len(panel.Records))
	for _, record := range panel.Records {
		detail := record.Error
		if detail == "" {
			detail = record.Response
		}
		latency := ""
		if record.LatencyMS != nil {
			latency = fmt.Sprintf("%.0f ms", *record.LatencyMS)
		}
		rows = append(rows, []string{record.Name, record.Status, latency, truncate(detail, 48)})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Service", "Status", "Latency", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
