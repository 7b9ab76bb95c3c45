package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ppiankov/a11yspectre/internal/webclient"
	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// Rules are evaluated for the generic crawler group only.
const wildcardAgent = "*"

// Decision is the robots.txt verdict for one URL.
type Decision struct {
	Allowed    bool
	CrawlDelay time.Duration
	RobotsURL  string
	StatusCode int
}

// CheckError means robots.txt could not be consulted at all (bad URL,
// DNS or transport failure after retries). It never means "disallowed".
type CheckError struct {
	URL string
	Err error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("robots.txt check failed for %s: %v", e.URL, e.Err)
}

func (e *CheckError) Unwrap() error {
	return e.Err
}

// Gate answers whether a URL may be fetched according to its site's robots.txt.
type Gate struct {
	client *webclient.Client
	log    logrus.FieldLogger
}

// New creates a Gate that fetches robots.txt through client.
func New(client *webclient.Client, log logrus.FieldLogger) *Gate {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Gate{client: client, log: log}
}

// Check fetches {origin}/robots.txt once and returns both the permission and
// the requested crawl delay for the wildcard agent. Any non-2xx response,
// server errors included, means no restrictions were found.
func (g *Gate) Check(ctx context.Context, rawURL string) (Decision, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return Decision{}, &CheckError{URL: rawURL, Err: err}
	}
	if target.Scheme == "" || target.Host == "" {
		return Decision{}, &CheckError{URL: rawURL, Err: fmt.Errorf("missing scheme or host")}
	}

	robotsURL := RobotsURL(target)
	log := g.log.WithField("robots_url", robotsURL)

	resp, err := g.client.Get(ctx, robotsURL)
	if err != nil {
		return Decision{}, &CheckError{URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	var data *robotstxt.RobotsData
	if resp.StatusCode >= http.StatusInternalServerError {
		// The parser reads 5xx as disallow-all; nothing was published.
		log.WithField("status", resp.StatusCode).Warn("robots.txt unavailable, treating as unrestricted")
		data, err = robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)
	} else {
		data, err = robotstxt.FromResponse(resp)
	}
	if err != nil {
		return Decision{}, &CheckError{URL: rawURL, Err: fmt.Errorf("parse robots.txt: %w", err)}
	}

	d := Decision{
		Allowed:    data.TestAgent(requestPath(target), wildcardAgent),
		RobotsURL:  robotsURL,
		StatusCode: resp.StatusCode,
	}
	if group := data.FindGroup(wildcardAgent); group != nil {
		d.CrawlDelay = group.CrawlDelay
	}

	log.WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"allowed":     d.Allowed,
		"crawl_delay": d.CrawlDelay,
	}).Debug("robots.txt evaluated")

	return d, nil
}

// IsAllowed reports whether the wildcard agent may fetch rawURL.
func (g *Gate) IsAllowed(ctx context.Context, rawURL string) (bool, error) {
	d, err := g.Check(ctx, rawURL)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

// CrawlDelay returns the wildcard agent's crawl delay, zero when unspecified.
func (g *Gate) CrawlDelay(ctx context.Context, rawURL string) (time.Duration, error) {
	d, err := g.Check(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	return d.CrawlDelay, nil
}

// RobotsURL returns the robots.txt location for u's origin.
func RobotsURL(u *url.URL) string {
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}).String()
}

func requestPath(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
