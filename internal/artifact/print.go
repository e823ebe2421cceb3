package artifact

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Paper is a paper size in inches.
type Paper struct {
	Width  float64
	Height float64
}

// PrinterConfig controls the headless Chrome used by Printer.
type PrinterConfig struct {
	ChromePath string
	NoSandbox  bool
	Timeout    time.Duration
	Paper      Paper
	Margin     float64
}

// Printer prints preview HTML to PDF with a headless Chrome started per call.
type Printer struct {
	cfg PrinterConfig
}

// NewPrinter fills in A4, a 0.4in margin and a 30s timeout where cfg leaves them unset.
func NewPrinter(cfg PrinterConfig) *Printer {
	if cfg.Paper.Width <= 0 || cfg.Paper.Height <= 0 {
		cfg.Paper = Paper{Width: 8.27, Height: 11.69}
	}
	if cfg.Margin <= 0 {
		cfg.Margin = 0.4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Printer{cfg: cfg}
}

// Print renders html and returns the PDF bytes.
func (p *Printer) Print(ctx context.Context, html string) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "cvbuilder-chrome-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp profile dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(tmpDir),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if p.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(p.cfg.ChromePath))
	}
	if p.cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	chromeCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	chromeCtx, cancelTimeout := context.WithTimeout(chromeCtx, p.cfg.Timeout)
	defer cancelTimeout()

	return printInTab(chromeCtx, html, p.cfg.Paper, p.cfg.Margin)
}

// printInTab loads html into a blank tab and prints it.
func printInTab(ctx context.Context, html string, paper Paper, margin float64) ([]byte, error) {
	var pdfBuf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frame, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frame.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paper.Width).
				WithPaperHeight(paper.Height).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}
