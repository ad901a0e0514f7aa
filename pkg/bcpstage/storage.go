package bcpstage

import "context"

// ObjectStore transfers flat files to and from object storage.
// All errors returned by implementations wrap ErrTransferFailed or ErrSourceNotFound.
type ObjectStore interface {
	// Latest returns the key of the most recently modified .bcp or .bcp.gz
	// object under prefix.
	Latest(ctx context.Context, prefix string) (string, error)

	// Download copies the object at key into dir and returns the local path.
	Download(ctx context.Context, key, dir string) (string, error)

	// Upload copies the local file at path to key.
	Upload(ctx context.Context, path, key string) error
}
