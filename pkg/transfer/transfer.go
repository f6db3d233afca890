// Package transfer implements the single-item upload and download primitives.
// Both stream between the local file and the store without buffering whole
// objects in memory.
package transfer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gabriel-vasile/mimetype"

	"github.com/sgaunet/s3-nocheck-resource/pkg/dto"
	"github.com/sgaunet/s3-nocheck-resource/pkg/errs"
	"github.com/sgaunet/s3-nocheck-resource/pkg/storage"
)

const writeBufferSize = 64 * 1024

// Transferer moves work items between the local filesystem and one bucket.
type Transferer struct {
	connector storage.Connector
	bucket    string
	region    string
	log       *slog.Logger
}

// New creates a Transferer. Each transfer connects through connector on its
// own, so credentials are resolved per item.
func New(connector storage.Connector, bucket, region string) *Transferer {
	return &Transferer{
		connector: connector,
		bucket:    bucket,
		region:    region,
		log:       slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger
func (t *Transferer) SetLogger(log *slog.Logger) {
	t.log = log
}

// Transfer runs the primitive matching item.Direction.
func (t *Transferer) Transfer(ctx context.Context, item dto.WorkItem) error {
	switch item.Direction {
	case dto.Upload:
		return t.Upload(ctx, item)
	case dto.Download:
		return t.Download(ctx, item)
	default:
		return errs.Transfer("transfer", item.Name(), fmt.Errorf("unknown direction %d", item.Direction))
	}
}

// Upload streams item.LocalPath to item.Key.
func (t *Transferer) Upload(ctx context.Context, item dto.WorkItem) error {
	fail := func(err error) error {
		t.log.Error("Error uploading file",
			slog.String("file", item.LocalPath),
			slog.String("key", item.Key),
			slog.String("error", err.Error()))
		return errs.Transfer("upload", item.LocalPath, err)
	}

	store, err := t.connector.Connect(ctx, t.region)
	if err != nil {
		return fail(err)
	}

	f, err := os.Open(item.LocalPath)
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fail(err)
	}

	if err := store.PutObject(ctx, t.bucket, item.Key, f, info.Size(), t.contentType(item.LocalPath)); err != nil {
		return fail(err)
	}
	t.log.Info("Uploaded file", slog.String("file", item.LocalPath), slog.String("key", item.Key))
	return nil
}

func (t *Transferer) contentType(localPath string) string {
	mt, err := mimetype.DetectFile(localPath)
	if err != nil {
		t.log.Debug("Cannot detect content type", slog.String("file", localPath), slog.String("error", err.Error()))
		return ""
	}
	return mt.String()
}

// Download streams item.Key into item.LocalPath, creating or truncating it.
// A file left half written by a failed read is kept as is.
func (t *Transferer) Download(ctx context.Context, item dto.WorkItem) error {
	fail := func(msg string, err error) error {
		t.log.Error(msg,
			slog.String("key", item.Key),
			slog.String("file", item.LocalPath),
			slog.String("error", err.Error()))
		return errs.Transfer("download", item.Key, err)
	}

	store, err := t.connector.Connect(ctx, t.region)
	if err != nil {
		return fail("Error downloading file", err)
	}

	body, err := store.GetObject(ctx, t.bucket, item.Key)
	if err != nil {
		return fail("Error downloading file", err)
	}
	defer body.Close()

	f, err := os.Create(item.LocalPath)
	if err != nil {
		return fail("Error opening file", err)
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, writeBufferSize)
	n, err := io.Copy(w, body)
	if err != nil {
		return fail("Error writing file", err)
	}
	if err := w.Flush(); err != nil {
		return fail("Error writing file", err)
	}
	if err := f.Close(); err != nil {
		return fail("Error writing file", err)
	}
	t.log.Info("Downloaded", slog.String("key", item.Key), slog.String("file", item.LocalPath), slog.Int64("bytes", n))
	return nil
}
