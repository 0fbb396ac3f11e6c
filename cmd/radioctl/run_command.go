package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"onestopradio/internal/models"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var panelFlag string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Trigger a diagnostics pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/diagnostics/run"
			if panelFlag == models.PanelEncoding {
				path = "/api/encoding/run"
			} else if panelFlag != models.PanelServices {
				return fmt.Errorf("unknown panel %q", panelFlag)
			}

			var resp struct {
				Panel string `json:"panel"`
				State string `json:"state"`
			}
			if err := ctx.post(path, &resp); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s pass %s\n", resp.Panel, resp.State)
			return nil
		},
	}

	cmd.Flags().StringVar(&panelFlag, "panel", "services", "Panel to run (services or encoding)")
	return cmd
}
