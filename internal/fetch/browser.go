package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Masks the usual headless fingerprints before any page script runs.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'plugins', {
	get: () => [
		{name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer'},
		{name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai'},
		{name: 'Native Client', filename: 'internal-nacl-plugin'}
	]
});
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
window.chrome = { runtime: {} };
`

// Closes the consent banners and welcome modals that sit on top of the
// content on several platforms.
const dismissOverlaysScript = `
(() => {
	const selectors = [
		'[class*="modal"] button[aria-label*="lose"]',
		'[class*="popup"] button[aria-label*="lose"]',
		'[class*="consent"] button',
		'[class*="cookie"] button',
	];
	let clicked = 0;
	for (const sel of selectors) {
		for (const btn of document.querySelectorAll(sel)) {
			try { btn.click(); clicked++; } catch (e) {}
		}
	}
	return clicked;
})()
`

// Counts "ST, 12345"-shaped fragments as a proxy for how many hotel cards
// have rendered.
const addressCountScript = `
(() => {
	const matches = document.body.innerText.match(/[A-Z]{2},?\s*\d{5}/g);
	return matches ? matches.length : 0;
})()
`

// startBrowser launches the stealth-configured browser on first use. One
// browser process serves every page of the session.
func (s *Session) startBrowser() {
	if s.browserCtx != nil {
		return
	}
	width := 1200 + rand.Intn(720)
	height := 800 + rand.Intn(280)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("lang", "en-US"),
		chromedp.WindowSize(width, height),
		chromedp.UserAgent(s.cfg.WorkerSettings.UserAgent),
	)

	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	s.browserCtx, s.browserCancel = chromedp.NewContext(s.allocCtx)
	slog.Info("stealth browser started.", slog.Int("width", width), slog.Int("height", height))
}

func (s *Session) fetchBrowser(ctx context.Context, url string, hint PageHint) (string, error) {
	s.startBrowser()

	// New tab per page, same browser process.
	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	defer tabCancel()
	tCtx, cancel := context.WithTimeout(tabCtx, s.cfg.FetcherSettings.BrowserTimeout)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-tCtx.Done():
		}
	}()

	settle := s.cfg.ScraperSettings.SubpageSettle
	if hint == HintTravel {
		settle = s.cfg.ScraperSettings.TravelSettle
	}

	var statusCode int
	chromedp.ListenTarget(tCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok {
			if e.Response.URL == url || e.Response.URL == url+"/" {
				statusCode = int(e.Response.Status)
			}
		}
	})

	start := time.Now()
	var html string
	err := chromedp.Run(tCtx,
		chromedp.Tasks{
			network.Enable(),
			emulation.SetTimezoneOverride("America/New_York"),
			chromedp.ActionFunc(func(ctx context.Context) error {
				_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
				return err
			}),
			enableLifecycleEvents(),
			navigateAndWaitFor(url, "DOMContentLoaded"),
			chromedp.Sleep(settle),
			s.settleAction(url, hint),
			chromedp.ActionFunc(func(ctx context.Context) error {
				rootNode, err := dom.GetDocument().Do(ctx)
				if err != nil {
					return err
				}
				html, err = dom.GetOuterHTML().WithNodeID(rootNode.NodeID).Do(ctx)
				return err
			}),
		},
	)
	if err != nil {
		return "", err
	}
	slog.Debug("browser fetch done.", slog.String("url", url), slog.Int("status", statusCode),
		slog.Int("html_chars", len(html)), slog.Int64("ms", time.Since(start).Milliseconds()))

	return html, nil
}

// settleAction gives script-driven content time to render. Travel pages get
// the patient treatment: wait for the network to go quiet, dismiss overlays,
// probe how many hotel addresses are visible, and scroll through the page to
// trigger lazy loading.
func (s *Session) settleAction(url string, hint PageHint) chromedp.Action {
	if hint != HintTravel {
		return chromedp.ActionFunc(func(ctx context.Context) error {
			_ = chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil).Do(ctx)
			return chromedp.Sleep(300 * time.Millisecond).Do(ctx)
		})
	}
	return chromedp.ActionFunc(func(ctx context.Context) error {
		idleCtx, idleCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := waitFor(idleCtx, "networkIdle"); err != nil {
			slog.Debug("network never went idle, continuing.", slog.String("url", url))
		}
		idleCancel()

		_ = chromedp.Evaluate(dismissOverlaysScript, nil).Do(ctx)

		var addresses int
		_ = chromedp.Evaluate(addressCountScript, &addresses).Do(ctx)
		slog.Debug("travel page address probe.", slog.String("url", url), slog.Int("addresses", addresses))
		if addresses < 2 {
			// Hotel widgets often hydrate after the rest of the page.
			_ = chromedp.Sleep(2 * time.Second).Do(ctx)
		}

		for _, pct := range []string{"0.5", "1"} {
			_ = chromedp.Evaluate(fmt.Sprintf(`window.scrollTo(0, document.body.scrollHeight * %s)`, pct), nil).Do(ctx)
			_ = chromedp.Sleep(500 * time.Millisecond).Do(ctx)
		}
		_ = chromedp.Evaluate(`window.scrollTo(0, 0)`, nil).Do(ctx)
		return chromedp.Sleep(300 * time.Millisecond).Do(ctx)
	})
}

func enableLifecycleEvents() chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if err := page.Enable().Do(ctx); err != nil {
			return err
		}
		return page.SetLifecycleEventsEnabled(true).Do(ctx)
	}
}

func navigateAndWaitFor(url string, eventName string) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		_, _, _, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		return waitFor(ctx, eventName)
	}
}

func waitFor(ctx context.Context, eventName string) error {
	ch := make(chan struct{})
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	chromedp.ListenTarget(cctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventLifecycleEvent:
			if e.Name == eventName {
				cancel()
				close(ch)
			}
		}
	})
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
