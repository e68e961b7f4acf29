package upload

import "context"

// Chunk is one byte range of a file, posted as a single multipart request.
type Chunk struct {
	Index    int
	Total    int
	FileName string
	UploadID string
	// Data is only valid for the duration of SendChunk.
	Data []byte
}

// Target receives chunks in order. A returned error stops the upload.
type Target interface {
	SendChunk(ctx context.Context, c Chunk) error
}

// TargetFunc adapts a function to Target.
type TargetFunc func(ctx context.Context, c Chunk) error

func (f TargetFunc) SendChunk(ctx context.Context, c Chunk) error { return f(ctx, c) }
