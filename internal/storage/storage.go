package storage

import (
	"context"

	"github.com/ppiankov/a11yspectre/internal/models"
)

// Storage defines the interface for persisting scan history
type Storage interface {
	// Init ensures the history table exists. Safe to call on every start.
	Init(ctx context.Context) error

	// Add appends one record stamped with the current local time
	Add(ctx context.Context, url string, totalViolations int, format models.Format, filePath string) (models.ReportRecord, error)

	// LoadAll returns every record, most recent first
	LoadAll(ctx context.Context) ([]models.ReportRecord, error)

	// Get returns a single record by id
	Get(ctx context.Context, id int64) (models.ReportRecord, error)

	// Close releases the underlying database
	Close() error
}
