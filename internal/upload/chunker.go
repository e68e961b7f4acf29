// Package upload splits files into fixed-size chunks, posts them in order and
// tracks in-flight uploads so they can be observed and aborted.
package upload

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"campus-portal/internal/config"
	"campus-portal/internal/domain"
	"campus-portal/internal/logger"
	"campus-portal/internal/util"

	"go.uber.org/zap"
)

// ProgressFunc receives the percentage of chunks accepted so far.
type ProgressFunc func(percent int)

// Chunker posts a file as sequential chunks. There is no resume and no
// parallelism; the first rejected chunk ends the upload.
type Chunker struct {
	chunkSize  int64
	maxSize    int64
	extensions []string
}

func NewChunker(cfg config.UploadConfig, allowedExtensions ...string) *Chunker {
	exts := make([]string, 0, len(allowedExtensions))
	for _, e := range allowedExtensions {
		exts = append(exts, strings.ToLower(e))
	}
	return &Chunker{chunkSize: cfg.ChunkSize, maxSize: cfg.MaxSize, extensions: exts}
}

// ChunkCount is ceil(size / chunk size).
func (c *Chunker) ChunkCount(size int64) int {
	if size <= 0 || c.chunkSize <= 0 {
		return 0
	}
	return int((size + c.chunkSize - 1) / c.chunkSize)
}

// Progress is round((index+1) * 100 / total).
func Progress(index, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(index+1) * 100 / float64(total)))
}

// Validate rejects empty, oversized and unsupported files before any chunk is sent.
func (c *Chunker) Validate(name string, size int64) error {
	if size <= 0 {
		return domain.NewInvalidInputError(fmt.Sprintf("file %q is empty", name))
	}
	if c.maxSize > 0 && size > c.maxSize {
		return domain.NewInvalidInputError(fmt.Sprintf("file %q exceeds the %d byte limit", name, c.maxSize)).
			WithContext("max_size", c.maxSize)
	}
	if c.chunkSize <= 0 {
		return domain.NewInternalError("upload chunk size is not configured", nil)
	}
	if len(c.extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(name))
		for _, allowed := range c.extensions {
			if ext == allowed {
				return nil
			}
		}
		return domain.NewUnsupportedFileError(name, c.extensions...)
	}
	return nil
}

// Upload sends file to target and returns the upload id used. The id is taken
// from ctx when the upload was started through a Registry.
func (c *Chunker) Upload(ctx context.Context, target Target, file io.ReaderAt, size int64, name string, progress ProgressFunc) (string, error) {
	if err := c.Validate(name, size); err != nil {
		return "", err
	}
	uploadID, ok := IDFromContext(ctx)
	if !ok {
		uploadID = util.NewULID()
	}
	total := c.ChunkCount(size)
	log := logger.Get().With(zap.String("upload_id", uploadID), zap.String("file_name", name))
	log.Info("Starting chunked upload", zap.Int64("size", size), zap.Int("chunks", total))

	buf := make([]byte, c.chunkSize)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			log.Info("Upload aborted", zap.Int("chunk", i))
			return uploadID, domain.NewUploadAbortedError(uploadID, err)
		}

		offset := int64(i) * c.chunkSize
		length := c.chunkSize
		if remaining := size - offset; remaining < length {
			length = remaining
		}
		n, err := file.ReadAt(buf[:length], offset)
		if err != nil && !(err == io.EOF && int64(n) == length) {
			return uploadID, domain.NewInternalError(fmt.Sprintf("failed to read chunk %d of %s", i, name), err)
		}

		chunk := Chunk{Index: i, Total: total, FileName: name, UploadID: uploadID, Data: buf[:n]}
		if err := target.SendChunk(ctx, chunk); err != nil {
			if ctx.Err() != nil {
				return uploadID, domain.NewUploadAbortedError(uploadID, err)
			}
			log.Warn("Chunk rejected", zap.Int("chunk", i), zap.Error(err))
			return uploadID, err
		}
		if progress != nil {
			progress(Progress(i, total))
		}
	}
	log.Info("Chunked upload finished", zap.Int("chunks", total))
	return uploadID, nil
}

type uploadIDKey struct{}

// WithID stores the upload id in ctx.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, uploadIDKey{}, id)
}

// IDFromContext returns the id stored by WithID.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(uploadIDKey{}).(string)
	return id, ok && id != ""
}
