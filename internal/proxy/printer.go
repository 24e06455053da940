package proxy

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// pdfPrinter renders a complete HTML document to PDF.
type pdfPrinter interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
}

// chromePrinter drives a shared headless Chrome. The browser is started
// lazily on the first print.
type chromePrinter struct {
	mu        sync.Mutex
	allocator context.Context
	cancel    context.CancelFunc
	logger    *log.Logger
}

func newChromePrinter(logger *log.Logger) *chromePrinter {
	return &chromePrinter{logger: logger}
}

func (p *chromePrinter) allocatorContext() context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.allocator != nil {
		return p.allocator
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-extensions", true),
	)
	p.allocator, p.cancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return p.allocator
}

func (p *chromePrinter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
		p.allocator = nil
	}
}

// PrintPDF loads html into a blank tab with print media emulation and
// returns the printed PDF.
func (p *chromePrinter) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, fmt.Errorf("print: empty document")
	}
	taskCtx, cancelTab := chromedp.NewContext(p.allocatorContext())
	defer cancelTab()

	// Bind the tab to the caller so an abandoned request closes it.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	start := time.Now()
	var pdf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetEmulatedMedia().WithMedia("print").Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print: %w", err)
	}
	if p.logger != nil {
		p.logger.Printf("PRINT %d bytes of html -> %d bytes of pdf in %s", len(html), len(pdf), time.Since(start).Round(time.Millisecond))
	}
	return pdf, nil
}
