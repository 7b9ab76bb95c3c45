package audit

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/ppiankov/a11yspectre/internal/browser"
)

// runAxe executes the full default rule set and serialises the result inside
// the page so it crosses the protocol boundary as one string.
const runAxe = `axe.run(document).then(r => JSON.stringify(r))`

// ChromeOptions configures the chromedp-backed scanner.
type ChromeOptions struct {
	Browser           browser.Options
	NavigationTimeout time.Duration
	Script            *ScriptSource
}

// NewChromeScanner returns a ScanFunc that drives headless Chromium. Every
// call owns a fresh browser process which is closed before returning.
func NewChromeScanner(opts ChromeOptions) ScanFunc {
	return func(ctx context.Context, url string) (*Scan, error) {
		script, err := opts.Script.Load(ctx)
		if err != nil {
			return nil, &EngineError{Stage: StageInject, URL: url, Err: err}
		}

		session, err := browser.Start(ctx, opts.Browser)
		if err != nil {
			return nil, &EngineError{Stage: StageLaunch, URL: url, Err: err}
		}
		defer session.Close()

		navCtx := session.Context()
		if opts.NavigationTimeout > 0 {
			var cancel context.CancelFunc
			navCtx, cancel = context.WithTimeout(navCtx, opts.NavigationTimeout)
			defer cancel()
		}

		// axe is injected as inline script; pages with a strict CSP would block it.
		if err := chromedp.Run(navCtx,
			page.SetBypassCSP(true),
			chromedp.Navigate(url),
		); err != nil {
			return nil, &NavigationError{URL: url, Err: err}
		}

		var loaded bool
		if err := chromedp.Run(session.Context(),
			chromedp.Evaluate(script+"\n;typeof axe !== 'undefined'", &loaded),
		); err != nil {
			return nil, &EngineError{Stage: StageInject, URL: url, Err: err}
		}
		if !loaded {
			return nil, &EngineError{Stage: StageInject, URL: url, Err: errors.New("axe-core did not load")}
		}

		var (
			result string
			dom    string
		)
		if err := chromedp.Run(session.Context(),
			chromedp.Evaluate(runAxe, &result, awaitPromise),
			chromedp.OuterHTML("html", &dom, chromedp.ByQuery),
		); err != nil {
			return nil, &EngineError{Stage: StageEvaluate, URL: url, Err: err}
		}

		return &Scan{Result: []byte(result), DOM: dom}, nil
	}
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}
