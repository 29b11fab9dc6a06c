// Package store persists the request/result history. The pipeline only
// appends and lists; it never reads persisted state back into its own
// decisions.
package store

import (
	"context"

	"github.com/sells-group/devscout/internal/model"
)

// Store defines the persistence collaborator for the discovery pipeline.
type Store interface {
	// RecordRequest appends a pending search request and returns its ID.
	RecordRequest(ctx context.Context, query string, pageCount int) (string, error)

	// RecordResult attaches the aggregated record set to a request and
	// marks it complete.
	RecordResult(ctx context.Context, requestID string, records []model.ProfileRecord) error

	// ListRequests returns stored requests, newest first. limit <= 0 means
	// no limit.
	ListRequests(ctx context.Context, limit int) ([]model.RequestRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
