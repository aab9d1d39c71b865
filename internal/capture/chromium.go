package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// Default capture parameters for the calendar snapshot.
const (
	DefaultWidth   = 840
	DefaultHeight  = 1200
	DefaultTimeout = 30 * time.Second
)

// SnapshotOptions defines parameters for a Chromium-based screenshot of
// the calendar page.
type SnapshotOptions struct {
	// URL of the calendar page, e.g. "http://127.0.0.1:8080/".
	URL string

	// OutputPath is where the PNG will be written, e.g.
	// "./cache/snapshot.png".
	OutputPath string

	// Width and Height are the viewport dimensions in pixels. Zero means
	// the defaults.
	Width  int
	Height int

	// Timeout bounds the entire capture operation.
	Timeout time.Duration
}

// SnapshotPNG launches a headless Chromium via chromedp, navigates to the
// calendar page, waits until the calendar grid signals it has finished
// rendering (data-ready="true" on #calendar) and writes a PNG screenshot
// to opts.OutputPath.
func SnapshotPNG(parentCtx context.Context, opts SnapshotOptions) error {
	if opts.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`#calendar[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(300 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	return nil
}
