// Package storage persists the original documents submitted for processing.
package storage

import "context"

// Store archives document blobs and returns a retrieval URL. Saving is
// best-effort from the pipeline's point of view: a run proceeds on the
// in-memory bytes even when archival fails.
type Store interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
}
