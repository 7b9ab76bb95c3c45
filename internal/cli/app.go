package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/ppiankov/a11yspectre/internal/audit"
	"github.com/ppiankov/a11yspectre/internal/browser"
	"github.com/ppiankov/a11yspectre/internal/checker"
	"github.com/ppiankov/a11yspectre/internal/config"
	"github.com/ppiankov/a11yspectre/internal/discovery"
	"github.com/ppiankov/a11yspectre/internal/reporter"
	"github.com/ppiankov/a11yspectre/internal/robots"
	"github.com/ppiankov/a11yspectre/internal/storage"
	"github.com/ppiankov/a11yspectre/internal/validator"
	"github.com/ppiankov/a11yspectre/internal/webclient"
	"github.com/sirupsen/logrus"
)

// app is the fully wired checker plus the history it writes to.
type app struct {
	loc       *time.Location
	store     *storage.SQLiteStorage
	artifacts *storage.ArtifactDir
	checker   *checker.Checker
}

// Close releases the history database.
func (a *app) Close() error {
	return a.store.Close()
}

// newApp builds the application from cfg. Replaced in tests.
var newApp = buildApp

func buildApp(ctx context.Context, c *config.Config, log logrus.FieldLogger) (*app, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	reportsDir, err := config.ResolvePath(c.ReportsDir)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	artifacts := storage.NewArtifactDir(reportsDir)

	client := webclient.New(webclient.Options{
		Timeout:   c.HTTPTimeout,
		Retries:   c.HTTPRetries,
		UserAgent: c.UserAgent,
		Logger:    log,
	})

	browserOpts := browser.Options{
		UserAgent: c.UserAgent,
		NoSandbox: c.BrowserNoSandbox,
		Log:       log,
	}
	plan := discovery.New(exec.LookPath, os.Getenv).Discover(c.BrowserPath)
	if path, err := plan.Browser(); err != nil {
		log.WithError(err).Warn("Browser discovery failed, leaving the choice to chromedp")
	} else {
		browserOpts.ExecPath = path
		log.WithField("browser", path).Debug("Browser selected")
	}

	dumpPath := ""
	if c.DumpResults {
		dumpPath = c.DumpPath
	}
	runner := audit.New(
		audit.NewChromeScanner(audit.ChromeOptions{
			Browser:           browserOpts,
			NavigationTimeout: c.NavigationTimeout,
			Script:            audit.NewScriptSource(c.Axe.ScriptPath, c.Axe.ScriptURL, client),
		}),
		audit.Options{
			Timeout:           c.AuditTimeout,
			NavigationRetries: c.NavigationRetries,
			DumpPath:          dumpPath,
			Log:               log,
		},
	)

	html, err := reporter.NewHTMLRenderer(loc)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	pdf, err := reporter.NewPDFRenderer(loc, &reporter.ChromePDFConverter{
		Browser: browserOpts,
		Timeout: c.PDFTimeout,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	chk := checker.New(checker.Deps{
		Validator: validator.New(client),
		Gate:      robots.New(client, log),
		Auditor:   runner,
		Renderers: []reporter.Renderer{html, pdf},
		Artifacts: artifacts,
		Store:     store,
	}, checker.Options{
		HonorCrawlDelay: c.HonorCrawlDelay,
		MaxCrawlDelay:   c.MaxCrawlDelay,
		Log:             log,
		OnState: func(s checker.State) {
			logDebug("Check state: %s", s)
		},
	})

	return &app{
		loc:       loc,
		store:     store,
		artifacts: artifacts,
		checker:   chk,
	}, nil
}

// openStore opens the history database named by c.
func openStore(ctx context.Context, c *config.Config) (*storage.SQLiteStorage, error) {
	dbPath, err := config.ResolvePath(c.DBPath)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	logDebug("History database: %s", dbPath)
	return store, nil
}
