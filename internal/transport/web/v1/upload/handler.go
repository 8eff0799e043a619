package upload

import (
	"context"
	"io"
	"log"

	"github.com/dharti-patel/hipster-image-upload/internal/domain"
	uploadcore "github.com/dharti-patel/hipster-image-upload/internal/upload"
)

// Uploader — узкий порт ядра пайплайна, ровно то, что нужно хендлерам.
type Uploader interface {
	Open(ctx context.Context, p uploadcore.OpenParams) (domain.UploadSession, error)
	Receive(ctx context.Context, id domain.SessionID, index int, r io.Reader, size int64) error
	Finalize(ctx context.Context, id domain.SessionID) (domain.Asset, error)
}

type Handler struct {
	Log     *log.Logger
	Uploads Uploader
}
