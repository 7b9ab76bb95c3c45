package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/a11yspectre/internal/models"
)

var _ Storage = (*SQLiteStorage)(nil)

func openTestDB(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "reports.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
	if s.Path() != path {
		t.Errorf("expected path %s, got %s", path, s.Path())
	}
}

func TestInitIdempotent(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	if _, err := s.Add(ctx, "https://example.com", 1, models.FormatHTML, "reports/a.html"); err != nil {
		t.Fatal(err)
	}
	if err := s.Init(ctx); err != nil {
		t.Fatalf("second Init: %v", err)
	}

	records, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("Init must not drop rows, got %d", len(records))
	}
}

func TestLoadAllEmpty(t *testing.T) {
	s := openTestDB(t)
	records, err := s.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", records)
	}
}

func TestAddAndLoadAllOrder(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	clock := base
	s.now = func() time.Time { return clock }

	first, err := s.Add(ctx, "https://a.example", 3, models.FormatHTML, "reports/a.html")
	if err != nil {
		t.Fatal(err)
	}
	clock = base.Add(2 * time.Second)
	if _, err := s.Add(ctx, "https://b.example", 0, models.FormatPDF, "reports/b.pdf"); err != nil {
		t.Fatal(err)
	}
	// same second as the previous row
	if _, err := s.Add(ctx, "https://c.example", 7, models.FormatHTML, "reports/c.html"); err != nil {
		t.Fatal(err)
	}

	if first.ID == 0 {
		t.Error("expected an assigned id")
	}
	if first.Date != "2024-05-01 12:00:00" {
		t.Errorf("unexpected date: %s", first.Date)
	}

	records, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	want := []string{"https://c.example", "https://b.example", "https://a.example"}
	for i, url := range want {
		if records[i].URL != url {
			t.Errorf("records[%d].URL = %s, want %s", i, records[i].URL, url)
		}
	}
	if records[2].TotalViolations != 3 || records[2].Format != models.FormatHTML || records[2].FilePath != "reports/a.html" {
		t.Errorf("unexpected round trip: %+v", records[2])
	}
}

func TestGet(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	rec, err := s.Add(ctx, "https://example.com", 2, models.FormatPDF, "reports/x.pdf")
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != rec {
		t.Errorf("expected %+v, got %+v", rec, got)
	}

	_, err = s.Get(ctx, rec.ID+100)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(ctx, "https://example.com", 1, models.FormatHTML, "r.html"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	records, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected history to survive reopen, got %d", len(records))
	}
}

func TestConcurrentAdd(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Add(ctx, "https://example.com", 1, models.FormatHTML, "r.html"); err != nil {
				t.Errorf("Add: %v", err)
			}
		}()
	}
	wg.Wait()

	records, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 10 {
		t.Fatalf("expected 10 records, got %d", len(records))
	}
}

func TestCloseNil(t *testing.T) {
	var s *SQLiteStorage
	if err := s.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
}
