package main

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"cpcal/internal/calendar"
	"cpcal/internal/contest"
	"cpcal/internal/i18n"
	"cpcal/internal/ics"
	"cpcal/internal/model"
)

var (
	gridYear      int
	gridMonth     int
	gridWeekStart string
	gridFeed      string
	gridPlatform  string
	gridLimit     int
	gridLang      string
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Print a month grid of contests",
	Long: `Fetch the configured feeds (or a single local feed file) and print the
month as a text calendar.

Examples:
  # Current month from the configured feeds
  cpcal grid

  # March 2025 from a local ICS export, weeks starting on Monday
  cpcal grid --year 2025 --month 3 --week-start monday --feed ./atcoder.ics --platform atcoder
`,
	Args: cobra.NoArgs,
	RunE: runGrid,
}

func init() {
	gridCmd.Flags().IntVar(&gridYear, "year", 0, "Year (default: current)")
	gridCmd.Flags().IntVar(&gridMonth, "month", 0, "Month 1-12 (default: current)")
	gridCmd.Flags().StringVar(&gridWeekStart, "week-start", "", "First weekday: sunday or monday (default: config)")
	gridCmd.Flags().StringVar(&gridFeed, "feed", "", "Local .ics or .json feed file instead of configured feeds")
	gridCmd.Flags().StringVar(&gridPlatform, "platform", "CODEFORCES", "Platform of the --feed file")
	gridCmd.Flags().IntVar(&gridLimit, "limit", calendar.DefaultCompactLimit, "Contests listed per day; 0 lists all")
	gridCmd.Flags().StringVar(&gridLang, "lang", "", "Label language: en or zh (default: config)")
	rootCmd.AddCommand(gridCmd)
}

func runGrid(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if gridWeekStart != "" {
		cfg.WeekStart = gridWeekStart
		cfg.Normalize()
	}
	if gridLang == "" {
		gridLang = cfg.Language
	}

	var sources []ics.Source
	if gridFeed != "" {
		p, err := model.ParsePlatform(gridPlatform)
		if err != nil {
			return err
		}
		src, err := contest.FileSource(gridFeed, p)
		if err != nil {
			return err
		}
		sources = []ics.Source{src}
	} else if sources, err = contest.SourcesFromConfig(cfg.Feeds); err != nil {
		return err
	}

	svc := newService(cfg, sources, nil)

	now := svc.Now()
	year, month := now.Year(), now.Month()
	if gridYear != 0 {
		year = gridYear
	}
	if gridMonth != 0 {
		month = time.Month(gridMonth)
	}

	if len(sources) > 0 {
		// Read the requested month rather than the window around today.
		start, end := contest.MonthWindow(year, month, svc.Location())
		if _, err := svc.RefreshRange(rootContext(cmd), start, end); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
	}

	grid, err := svc.MonthGrid(year, month, nil, cfg.FirstWeekday())
	if err != nil {
		return err
	}
	bundle, err := i18n.Load()
	if err != nil {
		return err
	}
	renderGrid(cmd.OutOrStdout(), grid, bundle.Localizer(gridLang), gridLimit, svc.Location())
	return nil
}

const cellWidth = 24

// renderGrid prints the header row, then one block per week: a line with
// day numbers (today marked with *) followed by the contest lines.
func renderGrid(w io.Writer, grid calendar.Grid, loc *i18n.Localizer, limit int, tz *time.Location) {
	fmt.Fprintln(w, loc.MonthTitle(grid.Year, grid.Month))

	heads := loc.Weekdays(grid.FirstWeekday)
	for i := range heads {
		heads[i] = pad(heads[i])
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(heads, " "), " "))

	for _, week := range grid.Weeks {
		previews := make([]calendar.Preview, 7)
		rows := 0
		cols := make([]string, 7)
		for i, cell := range week {
			if cell == nil {
				continue
			}
			num := fmt.Sprintf("%2d", cell.Date.Day)
			if cell.IsToday {
				num += "*"
			}
			cols[i] = num
			previews[i] = cell.Preview(limit)
			n := len(previews[i].Shown)
			if previews[i].More > 0 {
				n++
			}
			rows = max(rows, n)
		}
		printRow(w, cols)

		for r := 0; r < rows; r++ {
			for i := range cols {
				cols[i] = ""
				p := previews[i]
				switch {
				case r < len(p.Shown):
					c := p.Shown[r]
					cols[i] = c.StartTime.In(tz).Format("15:04") + " " + c.Name
				case r == len(p.Shown) && p.More > 0:
					cols[i] = loc.More(p.More)
				}
			}
			printRow(w, cols)
		}
	}
	if len(grid.Rejected) > 0 {
		fmt.Fprintf(w, "(%d malformed contests skipped)\n", len(grid.Rejected))
	}
}

func printRow(w io.Writer, cols []string) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = pad(c)
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, " "), " "))
}

// pad truncates or right-pads s to cellWidth runes.
func pad(s string) string {
	n := utf8.RuneCountInString(s)
	if n > cellWidth {
		r := []rune(s)
		return string(r[:cellWidth-1]) + "…"
	}
	return s + strings.Repeat(" ", cellWidth-n)
}
