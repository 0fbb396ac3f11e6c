package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"onestopradio/internal/meter"
)

// meterPayload mirrors the console's /api/meter response shape.
type meterPayload struct {
	Frame meter.Frame     `json:"frame"`
	Left  []meter.Segment `json:"left"`
	Right []meter.Segment `json:"right"`
}

func newMeterCommand(ctx *commandContext) *cobra.Command {
	var watchFlag bool
	var layoutFlag string

	cmd := &cobra.Command{
		Use:   "meter",
		Short: "Show the program level meter",
		RunE: func(cmd *cobra.Command, args []string) error {
			if watchFlag {
				return watchMeter(cmd, ctx, layoutFlag)
			}

			var payload meterPayload
			if err := ctx.get("/api/meter?layout="+layoutFlag, &payload); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, payload)
			}
			printFrame(cmd, payload)
			return nil
		},
	}

	cmd.Flags().BoolVar(&watchFlag, "watch", false, "Stream frames continuously")
	cmd.Flags().StringVar(&layoutFlag, "layout", "horizontal", "Meter layout (horizontal or vertical)")
	return cmd
}

func watchMeter(cmd *cobra.Command, ctx *commandContext, layout string) error {
	target, err := ctx.wsURL("/api/meter/ws")
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.Dial(target+"?layout="+layout, nil)
	if err != nil {
		return fmt.Errorf("dial meter stream: %w", err)
	}
	defer conn.Close()

	for {
		var payload meterPayload
		if err := conn.ReadJSON(&payload); err != nil {
			return nil
		}
		if ctx.jsonOutput() {
			if err := writeJSON(cmd, payload); err != nil {
				return err
			}
			continue
		}
		fmt.Fprint(cmd.OutOrStdout(), "\r")
		fmt.Fprintf(cmd.OutOrStdout(), "L %s  R %s  peaks %3.0f/%3.0f",
			renderBar(payload.Left), renderBar(payload.Right),
			payload.Frame.PeakLeft, payload.Frame.PeakRight)
	}
}

func printFrame(cmd *cobra.Command, payload meterPayload) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "L %s  %5.1f (peak %5.1f)\n", renderBar(payload.Left), payload.Frame.Left, payload.Frame.PeakLeft)
	fmt.Fprintf(out, "R %s  %5.1f (peak %5.1f)\n", renderBar(payload.Right), payload.Frame.Right, payload.Frame.PeakRight)
}

var tierColors = map[meter.Tier]string{
	meter.TierGreen:  "\x1b[32m",
	meter.TierYellow: "\x1b[33m",
	meter.TierRed:    "\x1b[31m",
}

func renderBar(segments []meter.Segment) string {
	color := isatty.IsTerminal(os.Stdout.Fd())
	var b strings.Builder
	for _, segment := range segments {
		cell := "·"
		switch {
		case segment.Peak:
			cell = "▌"
		case segment.Lit:
			cell = "█"
		}
		if color && cell != "·" {
			b.WriteString(tierColors[segment.Tier])
			b.WriteString(cell)
			b.WriteString("\x1b[0m")
		} else {
			b.WriteString(cell)
		}
	}
	return b.String()
}
