package receipt

import (
	"context"
	"errors"
	"io"
)

var ErrEmptyUpload = errors.New("receipt upload has no content")

// Upload is a receipt file attached to a manual ledger operation
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// Storage keeps receipt files and hands back a URL to reference them by
type Storage interface {
	Store(ctx context.Context, upload *Upload) (string, error)
	Delete(ctx context.Context, url string) error
}
