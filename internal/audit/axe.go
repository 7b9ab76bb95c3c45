package audit

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/ppiankov/a11yspectre/internal/webclient"
)

// ScriptSource provides the axe-core JavaScript injected into audited pages.
// A local file wins over the URL. The script is loaded once per process;
// a failed load is retried on the next call.
type ScriptSource struct {
	path   string
	url    string
	client *webclient.Client

	mu     sync.Mutex
	script string
}

// NewScriptSource creates a source reading path, or downloading url with client.
func NewScriptSource(path, url string, client *webclient.Client) *ScriptSource {
	return &ScriptSource{path: path, url: url, client: client}
}

// StaticScript returns a source that always yields script. Used by tests.
func StaticScript(script string) *ScriptSource {
	return &ScriptSource{script: script}
}

// Load returns the axe-core source.
func (s *ScriptSource) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.script != "" {
		return s.script, nil
	}

	var (
		data []byte
		err  error
	)
	switch {
	case s.path != "":
		data, err = os.ReadFile(s.path)
		if err != nil {
			return "", fmt.Errorf("read axe-core script: %w", err)
		}
	case s.url != "" && s.client != nil:
		data, err = s.client.Fetch(ctx, s.url)
		if err != nil {
			return "", fmt.Errorf("download axe-core script: %w", err)
		}
	default:
		return "", fmt.Errorf("no axe-core script configured")
	}

	if len(data) == 0 {
		return "", fmt.Errorf("axe-core script is empty")
	}

	s.script = string(data)
	return s.script, nil
}

// Describe names where the script comes from.
func (s *ScriptSource) Describe() string {
	switch {
	case s.path != "":
		return s.path
	case s.url != "":
		return s.url
	default:
		return "inline"
	}
}
