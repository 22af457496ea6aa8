// Package assetstore talks to the external object storage holding product
// images. Objects are addressed by reference; only the catalog service is
// allowed to call it on behalf of a product.
package assetstore

import "context"

// Store uploads and deletes image objects. Delete must treat an already
// absent object as success: the caller may repeat a delete after a prior
// partial failure. Calls block on the network with no built-in retry or
// timeout; callers impose a deadline through ctx.
type Store interface {
	Upload(ctx context.Context, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Config carries the asset store endpoint, credentials and namespace.
type Config struct {
	Endpoint  string
	APIKey    string
	APISecret string
	Folder    string
}
