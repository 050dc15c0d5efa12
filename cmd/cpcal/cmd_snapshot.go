package main

import (
	"time"

	"github.com/spf13/cobra"

	"cpcal/internal/capture"
)

var (
	snapURL       string
	snapOut       string
	snapYear      int
	snapMonth     int
	snapWeekStart string
	snapLang      string
	snapWidth     int
	snapHeight    int
	snapTimeout   time.Duration
	snapTriColor  bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture the month page of a running server to PNG",
	Long: `Open /calendar of a running cpcal server in headless Chromium and save a
PNG once the page reports data-ready.

Examples:
  cpcal snapshot --url http://127.0.0.1:8080 --out ./march.png --year 2025 --month 3
`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapURL, "url", "", "Server base URL (default: http://<config listen>)")
	snapshotCmd.Flags().StringVar(&snapOut, "out", "calendar.png", "Output PNG path")
	snapshotCmd.Flags().IntVar(&snapYear, "year", 0, "Year (default: server's current)")
	snapshotCmd.Flags().IntVar(&snapMonth, "month", 0, "Month 1-12 (default: server's current)")
	snapshotCmd.Flags().StringVar(&snapWeekStart, "week-start", "", "First weekday: sunday or monday")
	snapshotCmd.Flags().StringVar(&snapLang, "lang", "", "Label language: en or zh")
	snapshotCmd.Flags().IntVar(&snapWidth, "width", capture.DefaultWidth, "Viewport width in pixels")
	snapshotCmd.Flags().IntVar(&snapHeight, "height", capture.DefaultHeight, "Viewport height in pixels")
	snapshotCmd.Flags().DurationVar(&snapTimeout, "timeout", capture.DefaultTimeout, "Capture timeout")
	snapshotCmd.Flags().BoolVar(&snapTriColor, "tricolor", false, "Reduce the PNG to white/black/red")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	base := snapURL
	if base == "" {
		base = "http://" + cfg.Listen
	}
	target, err := capture.CalendarURL(base, capture.PageQuery{
		Year:      snapYear,
		Month:     time.Month(snapMonth),
		WeekStart: snapWeekStart,
		Lang:      snapLang,
	})
	if err != nil {
		return err
	}

	opts := capture.Options{
		URL:        target,
		OutputPath: snapOut,
		Width:      snapWidth,
		Height:     snapHeight,
		Timeout:    snapTimeout,
		TriColor:   snapTriColor,
	}
	if cfg.BasicAuth != nil {
		opts.Username = cfg.BasicAuth.Username
		opts.Password = cfg.BasicAuth.Password
	}
	return capture.CaptureCalendarPNG(rootContext(cmd), opts)
}
