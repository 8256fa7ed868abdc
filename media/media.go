package media

import (
	"context"
	"io"

	"tourtab/structs"
)

// Store is the external image host. Uploads return an opaque reference
// (public URL + deletable id); this package never interprets the URL.
type Store interface {
	Upload(ctx context.Context, r io.Reader, contentType string) (structs.PhotoRef, error)
	Delete(ctx context.Context, publicID string) error
}
