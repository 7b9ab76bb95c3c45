package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// Options configures a headless browser session.
type Options struct {
	// ExecPath is the Chromium executable. Empty lets chromedp search.
	ExecPath  string
	UserAgent string
	// NoSandbox is needed when running as root inside containers.
	NoSandbox bool
	Log       logrus.FieldLogger
}

// Session is one headless browser process with a single tab. It is owned by
// exactly one caller and must be closed on every exit path.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Start launches the browser and opens an isolated tab. The browser is bound
// to the returned session, not to later per-action deadlines derived from it.
func Start(parent context.Context, opts Options) (*Session, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("hide-scrollbars", true))
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)

	var ctxOpts []chromedp.ContextOption
	if opts.Log != nil {
		log := opts.Log
		ctxOpts = append(ctxOpts, chromedp.WithErrorf(func(format string, args ...interface{}) {
			log.Debugf("chromedp: "+format, args...)
		}))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	cancel := func() {
		tabCancel()
		allocCancel()
	}

	// An empty Run allocates the browser on the session context.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &Session{ctx: tabCtx, cancel: cancel}, nil
}

// Context returns the tab context for chromedp.Run calls.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Close shuts down the tab and the browser process.
func (s *Session) Close() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
}
