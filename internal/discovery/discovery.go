package discovery

import (
	"errors"
	"os"
	"runtime"

	homedir "github.com/mitchellh/go-homedir"
)

// ErrNoBrowser is returned by Plan.Browser when nothing usable was found.
var ErrNoBrowser = errors.New("no Chromium-based browser found (install chromium or set browser_path)")

// LookPathFunc matches the signature of exec.LookPath.
type LookPathFunc func(file string) (string, error)

// GetenvFunc matches the signature of os.Getenv.
type GetenvFunc func(key string) string

// StatFunc reports whether an executable file exists at path.
type StatFunc func(path string) bool

// Discoverer probes the local environment for a browser the audit can drive.
// Injectable deps make it fully testable.
type Discoverer struct {
	lookPath LookPathFunc
	getenv   GetenvFunc
	exists   StatFunc
	goos     string
}

// New creates a Discoverer with the given dependency functions.
func New(lookPath LookPathFunc, getenv GetenvFunc) *Discoverer {
	return &Discoverer{
		lookPath: lookPath,
		getenv:   getenv,
		exists:   fileExists,
		goos:     runtime.GOOS,
	}
}

// Source records how a candidate was found.
type Source string

const (
	SourceConfig    Source = "config"
	SourceEnv       Source = "env"
	SourcePath      Source = "path"
	SourceWellKnown Source = "well-known"
)

// Candidate describes one browser location that was checked.
type Candidate struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Source    Source `json:"source"`
	Available bool   `json:"available"`
}

// Plan is the complete result of a discovery scan.
type Plan struct {
	Candidates []Candidate `json:"candidates"`
	Selected   *Candidate  `json:"selected,omitempty"`
}

// Browser returns the selected executable path.
func (p *Plan) Browser() (string, error) {
	if p.Selected == nil {
		return "", ErrNoBrowser
	}
	return p.Selected.Path, nil
}

// Discover resolves a browser in precedence order: the configured path, the
// environment overrides, PATH lookups, then well-known install locations.
// The first available candidate is selected; every candidate checked is
// recorded for `doctor`.
func (d *Discoverer) Discover(configured string) *Plan {
	plan := &Plan{}

	add := func(c Candidate) {
		plan.Candidates = append(plan.Candidates, c)
		if c.Available && plan.Selected == nil {
			selected := c
			plan.Selected = &selected
		}
	}

	if configured != "" {
		path := expandHome(configured)
		add(Candidate{Name: "configured", Path: path, Source: SourceConfig, Available: d.exists(path)})
	}

	for _, env := range EnvVars {
		if val := d.getenv(env); val != "" {
			path := expandHome(val)
			add(Candidate{Name: env, Path: path, Source: SourceEnv, Available: d.exists(path)})
		}
	}

	for _, info := range Registry {
		for _, bin := range info.Binaries {
			c := Candidate{Name: info.Name, Path: bin, Source: SourcePath}
			if path, err := d.lookPath(bin); err == nil {
				c.Path = path
				c.Available = true
			}
			add(c)
		}
	}

	for _, info := range Registry {
		for _, path := range info.Paths[d.goos] {
			add(Candidate{Name: info.Name, Path: path, Source: SourceWellKnown, Available: d.exists(path)})
		}
	}

	return plan
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if expanded, err := homedir.Expand(path); err == nil {
		return expanded
	}
	return path
}

// fileExists checks if a file exists (not a directory).
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
