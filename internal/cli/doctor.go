package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ppiankov/a11yspectre/internal/audit"
	"github.com/ppiankov/a11yspectre/internal/config"
	"github.com/ppiankov/a11yspectre/internal/discovery"
	"github.com/ppiankov/a11yspectre/internal/logging"
	"github.com/ppiankov/a11yspectre/internal/storage"
	"github.com/ppiankov/a11yspectre/internal/webclient"
	"github.com/spf13/cobra"
)

var (
	doctorFormat string
	doctorOnline bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check environment readiness and diagnose common problems",
	Long: `Doctor validates your a11yspectre setup end-to-end:

  1. Config file: found and readable?
  2. Timezone: display_timezone known?
  3. Browser: Chromium found?
  4. axe-core: script file present (or downloadable with --online)?
  5. Reports: directory writable?
  6. History: database readable?
  7. Artifacts: report files and history rows agree?

Fix the issues it reports, then run 'a11yspectre check <url>' with confidence.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&doctorFormat, "format", "text",
		"output format: text or json")
	doctorCmd.Flags().BoolVar(&doctorOnline, "online", false,
		"download the axe-core script to verify script_url")
}

// discoverBrowser runs browser discovery. Replaced in tests.
var discoverBrowser = func(configured string) *discovery.Plan {
	return discovery.New(exec.LookPath, os.Getenv).Discover(configured)
}

type doctorCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok", "warn", "fail"
	Detail string `json:"detail,omitempty"`
}

type doctorResult struct {
	Checks  []doctorCheck `json:"checks"`
	Summary string        `json:"summary"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	checks := []doctorCheck{
		checkConfig(),
		checkTimezone(),
		checkBrowser(),
		checkAxe(cmd),
		checkReportsDir(),
		checkDatabase(cmd),
		checkArtifacts(cmd),
	}

	result := summarizeChecks(checks)

	if doctorFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	return writeDoctorText(result)
}

func summarizeChecks(checks []doctorCheck) doctorResult {
	fails, warns := 0, 0
	for _, c := range checks {
		switch c.Status {
		case "fail":
			fails++
		case "warn":
			warns++
		}
	}

	summary := "all checks passed"
	if fails > 0 {
		summary = fmt.Sprintf("%d issue(s) found", fails)
	} else if warns > 0 {
		summary = fmt.Sprintf("ok with %d warning(s)", warns)
	}

	return doctorResult{Checks: checks, Summary: summary}
}

func writeDoctorText(result doctorResult) error {
	icons := map[string]string{
		"ok":   "✓",
		"warn": "△",
		"fail": "✗",
	}

	for _, c := range result.Checks {
		icon := icons[c.Status]
		if c.Detail != "" {
			fmt.Printf("  %s %-12s %s\n", icon, c.Name, c.Detail)
		} else {
			fmt.Printf("  %s %s\n", icon, c.Name)
		}
	}

	fmt.Printf("\n%s\n", result.Summary)
	return nil
}

func checkConfig() doctorCheck {
	path := configFile
	if path == "" {
		for _, candidate := range []string{"a11yspectre.yaml", config.ConfigPath()} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path == "" {
		return doctorCheck{
			Name:   "config",
			Status: "warn",
			Detail: "no config file found (using defaults). Run: a11yspectre config init",
		}
	}
	if _, err := os.Stat(path); err != nil {
		return doctorCheck{
			Name:   "config",
			Status: "warn",
			Detail: fmt.Sprintf("%s not found (using defaults)", path),
		}
	}

	return doctorCheck{
		Name:   "config",
		Status: "ok",
		Detail: path,
	}
}

func checkTimezone() doctorCheck {
	loc, err := cfg.Location()
	if err != nil {
		return doctorCheck{Name: "timezone", Status: "fail", Detail: err.Error()}
	}
	return doctorCheck{Name: "timezone", Status: "ok", Detail: loc.String()}
}

func checkBrowser() doctorCheck {
	plan := discoverBrowser(cfg.BrowserPath)
	path, err := plan.Browser()
	if err != nil {
		var tried []string
		for _, c := range plan.Candidates {
			tried = append(tried, c.Path)
		}
		detail := err.Error()
		if len(tried) > 0 {
			detail += fmt.Sprintf(" (tried: %s)", joinMax(tried, 3))
		}
		return doctorCheck{Name: "browser", Status: "fail", Detail: detail}
	}

	status := "ok"
	detail := fmt.Sprintf("%s (%s)", path, plan.Selected.Source)
	if cfg.BrowserPath != "" && plan.Selected.Source != discovery.SourceConfig {
		status = "warn"
		detail = fmt.Sprintf("browser_path %s unusable, falling back to %s", cfg.BrowserPath, path)
	}
	return doctorCheck{Name: "browser", Status: status, Detail: detail}
}

func checkAxe(cmd *cobra.Command) doctorCheck {
	if cfg.Axe.ScriptPath == "" && cfg.Axe.ScriptURL == "" {
		return doctorCheck{Name: "axe-core", Status: "fail", Detail: "neither axe.script_path nor axe.script_url is set"}
	}

	var client *webclient.Client
	if doctorOnline {
		client = webclient.New(webclient.Options{
			Timeout:   cfg.HTTPTimeout,
			Retries:   cfg.HTTPRetries,
			UserAgent: cfg.UserAgent,
			Logger:    logging.Log,
		})
	}
	source := audit.NewScriptSource(cfg.Axe.ScriptPath, cfg.Axe.ScriptURL, client)

	if cfg.Axe.ScriptPath == "" && !doctorOnline {
		return doctorCheck{
			Name:   "axe-core",
			Status: "ok",
			Detail: fmt.Sprintf("%s (downloaded on first check; --online to verify)", source.Describe()),
		}
	}

	script, err := source.Load(cmd.Context())
	if err != nil {
		return doctorCheck{Name: "axe-core", Status: "fail", Detail: fmt.Sprintf("%s: %v", source.Describe(), err)}
	}
	return doctorCheck{
		Name:   "axe-core",
		Status: "ok",
		Detail: fmt.Sprintf("%s (%d KB)", source.Describe(), len(script)/1024),
	}
}

func checkReportsDir() doctorCheck {
	dir := cfg.ReportsDir
	if dir == "" {
		dir = "reports"
	}

	info, err := os.Stat(dir)
	if err != nil {
		// Created on the first report
		return doctorCheck{
			Name:   "reports",
			Status: "ok",
			Detail: fmt.Sprintf("%s (will be created on first report)", dir),
		}
	}

	if !info.IsDir() {
		return doctorCheck{
			Name:   "reports",
			Status: "fail",
			Detail: fmt.Sprintf("%s exists but is not a directory", dir),
		}
	}

	tmpFile := filepath.Join(dir, ".doctor-check")
	if err := os.WriteFile(tmpFile, []byte("ok"), 0600); err != nil {
		return doctorCheck{
			Name:   "reports",
			Status: "fail",
			Detail: fmt.Sprintf("%s not writable: %v", dir, err),
		}
	}
	_ = os.Remove(tmpFile)

	return doctorCheck{
		Name:   "reports",
		Status: "ok",
		Detail: dir,
	}
}

func checkDatabase(cmd *cobra.Command) doctorCheck {
	dbPath, err := config.ResolvePath(cfg.DBPath)
	if err != nil {
		return doctorCheck{Name: "history", Status: "fail", Detail: err.Error()}
	}
	if _, err := os.Stat(dbPath); err != nil {
		return doctorCheck{
			Name:   "history",
			Status: "ok",
			Detail: fmt.Sprintf("%s (will be created on first report)", dbPath),
		}
	}

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return doctorCheck{Name: "history", Status: "fail", Detail: err.Error()}
	}
	defer func() { _ = store.Close() }()

	records, err := store.LoadAll(cmd.Context())
	if err != nil {
		return doctorCheck{Name: "history", Status: "fail", Detail: err.Error()}
	}

	return doctorCheck{
		Name:   "history",
		Status: "ok",
		Detail: fmt.Sprintf("%s (%d report(s))", dbPath, len(records)),
	}
}

// checkArtifacts compares the report files on disk with the history rows.
func checkArtifacts(cmd *cobra.Command) doctorCheck {
	dir, err := config.ResolvePath(cfg.ReportsDir)
	if err != nil {
		return doctorCheck{Name: "artifacts", Status: "fail", Detail: err.Error()}
	}
	artifacts := storage.NewArtifactDir(dir)

	files, err := artifacts.List()
	if err != nil {
		return doctorCheck{Name: "artifacts", Status: "fail", Detail: err.Error()}
	}

	recorded := map[string]bool{}
	missing := 0
	dbPath, err := config.ResolvePath(cfg.DBPath)
	if err != nil {
		return doctorCheck{Name: "artifacts", Status: "fail", Detail: err.Error()}
	}
	if _, err := os.Stat(dbPath); err == nil {
		store, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return doctorCheck{Name: "artifacts", Status: "fail", Detail: err.Error()}
		}
		records, err := store.LoadAll(cmd.Context())
		_ = store.Close()
		if err != nil {
			return doctorCheck{Name: "artifacts", Status: "fail", Detail: err.Error()}
		}
		for _, rec := range records {
			recorded[filepath.Clean(rec.FilePath)] = true
			if !storage.Exists(rec.FilePath) {
				missing++
			}
		}
	}

	var orphaned []string
	for _, f := range files {
		if !recorded[filepath.Clean(f.Path)] {
			orphaned = append(orphaned, filepath.Base(f.Path))
		}
	}

	detail := fmt.Sprintf("%s (%d file(s))", artifacts.GetStoragePath(), len(files))
	if len(orphaned) == 0 && missing == 0 {
		return doctorCheck{Name: "artifacts", Status: "ok", Detail: detail}
	}

	var problems []string
	if len(orphaned) > 0 {
		problems = append(problems, fmt.Sprintf("%d not in history: %s", len(orphaned), joinMax(orphaned, 3)))
	}
	if missing > 0 {
		problems = append(problems, fmt.Sprintf("%d history row(s) point at missing files", missing))
	}
	return doctorCheck{
		Name:   "artifacts",
		Status: "warn",
		Detail: detail + "; " + strings.Join(problems, "; "),
	}
}

// joinMax joins up to n strings with ", ".
func joinMax(s []string, n int) string {
	if len(s) <= n {
		return strings.Join(s, ", ")
	}
	return fmt.Sprintf("%s +%d more", strings.Join(s[:n], ", "), len(s)-n)
}
