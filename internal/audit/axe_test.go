package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/a11yspectre/internal/logging"
	"github.com/ppiankov/a11yspectre/internal/webclient"
)

func TestScriptSource_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "axe.min.js")
	if err := os.WriteFile(path, []byte("window.axe={run:()=>{}}"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewScriptSource(path, "https://unused.example/axe.js", nil)
	script, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if script != "window.axe={run:()=>{}}" {
		t.Errorf("unexpected script %q", script)
	}
	if src.Describe() != path {
		t.Errorf("expected file to be described, got %s", src.Describe())
	}
}

func TestScriptSource_URLMemoised(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("/* axe */"))
	}))
	defer ts.Close()

	client := webclient.New(webclient.Options{Timeout: 2 * time.Second, Logger: logging.Discard()})
	src := NewScriptSource("", ts.URL+"/axe.min.js", client)

	for i := 0; i < 3; i++ {
		if _, err := src.Load(context.Background()); err != nil {
			t.Fatalf("Load: %v", err)
		}
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("expected a single download, got %d", hits)
	}
}

func TestScriptSource_FailureRetriedLater(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("/* axe */"))
	}))
	defer ts.Close()

	client := webclient.New(webclient.Options{Timeout: 2 * time.Second, Logger: logging.Discard()})
	src := NewScriptSource("", ts.URL, client)

	if _, err := src.Load(context.Background()); err == nil {
		t.Fatal("expected first load to fail")
	}
	if _, err := src.Load(context.Background()); err != nil {
		t.Fatalf("expected second load to succeed: %v", err)
	}
}

func TestScriptSource_Errors(t *testing.T) {
	if _, err := NewScriptSource("", "", nil).Load(context.Background()); err == nil {
		t.Error("expected error with no source configured")
	}
	if _, err := NewScriptSource(filepath.Join(t.TempDir(), "missing.js"), "", nil).Load(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(t.TempDir(), "empty.js")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewScriptSource(empty, "", nil).Load(context.Background()); err == nil {
		t.Error("expected error for empty script")
	}
}

func TestStaticScript(t *testing.T) {
	script, err := StaticScript("axe").Load(context.Background())
	if err != nil || script != "axe" {
		t.Fatalf("unexpected %q, %v", script, err)
	}
	if StaticScript("axe").Describe() != "inline" {
		t.Error("expected inline description")
	}
}
