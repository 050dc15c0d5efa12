// Package capture renders the month page to PNG with headless Chromium.
package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	appLog "cpcal/internal/log"
)

// Viewport of the month page.
const (
	DefaultWidth   = 1280
	DefaultHeight  = 960
	DefaultTimeout = 30 * time.Second
)

// Options defines a single capture.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/calendar?year=2025&month=3".
	URL string

	// OutputPath is where the PNG is written.
	OutputPath string

	// Width and Height are the viewport in pixels; zero means the defaults.
	Width  int
	Height int

	// Username/Password are sent as HTTP Basic Auth when Username is set.
	Username string
	Password string

	// Timeout bounds the whole capture; zero means DefaultTimeout.
	Timeout time.Duration

	// TriColor reduces the screenshot to white/black/red before writing.
	TriColor bool
}

// PageQuery selects what the month page shows.
type PageQuery struct {
	Year      int
	Month     time.Month
	WeekStart string
	Platforms string
	Limit     *int
	Lang      string
}

// CalendarURL joins base (scheme://host[:port]) with /calendar and q.
func CalendarURL(base string, q PageQuery) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("capture: bad base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("capture: base URL %q needs scheme and host", base)
	}
	u.Path = "/calendar"

	v := url.Values{}
	if q.Year != 0 {
		v.Set("year", strconv.Itoa(q.Year))
	}
	if q.Month != 0 {
		v.Set("month", strconv.Itoa(int(q.Month)))
	}
	if q.WeekStart != "" {
		v.Set("week_start", q.WeekStart)
	}
	if q.Platforms != "" {
		v.Set("platform", q.Platforms)
	}
	if q.Limit != nil {
		v.Set("limit", strconv.Itoa(*q.Limit))
	}
	if q.Lang != "" {
		v.Set("lang", q.Lang)
	}
	u.RawQuery = v.Encode()
	return u.String(), nil
}

func (o *Options) normalize() error {
	if o.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if o.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return nil
}

// CaptureCalendarPNG navigates headless Chromium to opts.URL, waits for
// `[data-ready="true"]` and writes a full-page PNG to opts.OutputPath.
func CaptureCalendarPNG(parentCtx context.Context, opts Options) error {
	if err := opts.normalize(); err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
	}
	if opts.Username != "" {
		token := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
		tasks = append(tasks,
			network.Enable(),
			network.SetExtraHTTPHeaders(network.Headers{"Authorization": "Basic " + token}),
		)
	}
	tasks = append(tasks,
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	)

	start := time.Now()
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if opts.TriColor {
		reduced, err := reducePNG(png)
		if err != nil {
			return err
		}
		png = reduced
	}

	if err := writeFileAtomic(opts.OutputPath, png); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	appLog.Info("calendar captured", "path", opts.OutputPath, "bytes", len(png), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".cpcal-capture-*.png")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
