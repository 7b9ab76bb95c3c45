package validator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/a11yspectre/internal/models"
	"github.com/ppiankov/a11yspectre/internal/webclient"
	"github.com/tidwall/gjson"
)

// Reason identifies which input check failed.
type Reason string

const (
	ReasonEmpty       Reason = "empty"
	ReasonFormat      Reason = "format"
	ReasonUnreachable Reason = "unreachable"
	ReasonNoOutput    Reason = "no_output"
)

// User-facing messages, one per Reason.
const (
	MsgEmpty       = "Please enter a URL!"
	MsgFormat      = "Invalid URL format! Please include http:// or https://"
	MsgUnreachable = "This URL could not be reached!"
	MsgNoOutput    = "Please select at least one report type (HTML or PDF)."
)

var messages = map[Reason]string{
	ReasonEmpty:       MsgEmpty,
	ReasonFormat:      MsgFormat,
	ReasonUnreachable: MsgUnreachable,
	ReasonNoOutput:    MsgNoOutput,
}

// Error is an input validation failure. Error() is the message shown to the
// operator; Cause, when set, is only logged.
type Error struct {
	Reason Reason
	URL    string
	Cause  error
}

func (e *Error) Error() string {
	return messages[e.Reason]
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ValidationError represents a malformed scanner result
type ValidationError struct {
	Source string
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Invalid %s result:\n  - %s", e.Source, strings.Join(e.Errors, "\n  - "))
}

// Validator checks check requests and scanner output
type Validator struct {
	client *webclient.Client
}

// New creates a new validator. client is used for the reachability probe.
func New(client *webclient.Client) *Validator {
	return &Validator{client: client}
}

// ValidateURL runs the empty, format and reachability checks in order and
// returns the trimmed URL.
func (v *Validator) ValidateURL(ctx context.Context, raw string) (string, error) {
	target := strings.TrimSpace(raw)
	if err := CheckFormat(target); err != nil {
		return "", err
	}
	if err := v.Reachable(ctx, target); err != nil {
		return "", err
	}
	return target, nil
}

// CheckFormat accepts only absolute http/https URLs with a host.
func CheckFormat(raw string) error {
	target := strings.TrimSpace(raw)
	if target == "" {
		return &Error{Reason: ReasonEmpty}
	}

	u, err := url.Parse(target)
	if err != nil {
		return &Error{Reason: ReasonFormat, URL: target, Cause: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &Error{Reason: ReasonFormat, URL: target, Cause: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" || u.Hostname() == "" {
		return &Error{Reason: ReasonFormat, URL: target, Cause: fmt.Errorf("missing host")}
	}
	return nil
}

// Reachable sends a HEAD request (redirects followed) and requires a status
// below 400. Servers that refuse HEAD get one GET instead.
func (v *Validator) Reachable(ctx context.Context, target string) error {
	status, err := v.probe(ctx, http.MethodHead, target)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = v.probe(ctx, http.MethodGet, target)
	}
	if err != nil {
		return &Error{Reason: ReasonUnreachable, URL: target, Cause: err}
	}
	if status >= 400 {
		return &Error{Reason: ReasonUnreachable, URL: target, Cause: fmt.Errorf("HTTP %d", status)}
	}
	return nil
}

func (v *Validator) probe(ctx context.Context, method, target string) (int, error) {
	var (
		resp *http.Response
		err  error
	)
	if method == http.MethodHead {
		resp, err = v.client.Head(ctx, target)
	} else {
		resp, err = v.client.Get(ctx, target)
	}
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// ValidateFormats requires at least one output format.
func ValidateFormats(formats []models.Format) error {
	if len(formats) == 0 {
		return &Error{Reason: ReasonNoOutput}
	}
	return nil
}

// ValidateAuditResult checks that raw scanner JSON has the three result
// buckets and that every rule result carries an id and a nodes array.
func (v *Validator) ValidateAuditResult(data []byte) error {
	if !gjson.ValidBytes(data) {
		return &ValidationError{
			Source: "axe-core",
			Errors: []string{"Failed to parse JSON"},
		}
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return &ValidationError{
			Source: "axe-core",
			Errors: []string{"Result is not a JSON object"},
		}
	}

	var errors []string

	for _, bucket := range []string{"violations", "passes", "incomplete"} {
		field := root.Get(bucket)
		if !field.Exists() {
			errors = append(errors, fmt.Sprintf("Missing required field: '%s'", bucket))
			continue
		}
		if !field.IsArray() {
			errors = append(errors, fmt.Sprintf("Field '%s' must be an array", bucket))
			continue
		}

		for i, rule := range field.Array() {
			if rule.Get("id").String() == "" {
				errors = append(errors, fmt.Sprintf("%s[%d] is missing 'id'", bucket, i))
			}
			if nodes := rule.Get("nodes"); nodes.Exists() && !nodes.IsArray() {
				errors = append(errors, fmt.Sprintf("%s[%d].nodes must be an array", bucket, i))
			}
			if impact := rule.Get("impact"); impact.Exists() && impact.Type != gjson.Null && impact.Type != gjson.String {
				errors = append(errors, fmt.Sprintf("%s[%d].impact must be a string or null", bucket, i))
			}
		}
	}

	if len(errors) > 0 {
		return &ValidationError{Source: "axe-core", Errors: errors}
	}

	return nil
}
