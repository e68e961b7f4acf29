package upload

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"campus-portal/internal/config"
	"campus-portal/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTarget struct {
	mu     sync.Mutex
	chunks []Chunk
	failAt int
	onSend func(c Chunk)
}

func (r *recordingTarget) SendChunk(ctx context.Context, c Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAt >= 0 && c.Index == r.failAt {
		return domain.NewError(domain.CodeBackend, "Server error. Please try again later.", nil)
	}
	c.Data = append([]byte(nil), c.Data...)
	r.chunks = append(r.chunks, c)
	if r.onSend != nil {
		r.onSend(c)
	}
	return nil
}

func newTarget() *recordingTarget { return &recordingTarget{failAt: -1} }

func TestChunkCountAndProgress(t *testing.T) {
	c := NewChunker(config.UploadConfig{ChunkSize: 10, MaxSize: 1000})
	assert.Equal(t, 0, c.ChunkCount(0))
	assert.Equal(t, 1, c.ChunkCount(1))
	assert.Equal(t, 1, c.ChunkCount(10))
	assert.Equal(t, 2, c.ChunkCount(11))
	assert.Equal(t, 3, c.ChunkCount(25))

	assert.Equal(t, 33, Progress(0, 3))
	assert.Equal(t, 67, Progress(1, 3))
	assert.Equal(t, 100, Progress(2, 3))
	assert.Equal(t, 0, Progress(0, 0))
}

func TestChunker_UploadsSequentially(t *testing.T) {
	c := NewChunker(config.UploadConfig{ChunkSize: 4, MaxSize: 100})
	data := []byte("abcdefghij")
	target := newTarget()
	var progress []int

	id, err := c.Upload(WithID(context.Background(), "up-1"), target, bytes.NewReader(data), int64(len(data)), "answers.zip",
		func(p int) { progress = append(progress, p) })
	require.NoError(t, err)
	assert.Equal(t, "up-1", id)

	require.Len(t, target.chunks, 3)
	assert.Equal(t, "abcd", string(target.chunks[0].Data))
	assert.Equal(t, "efgh", string(target.chunks[1].Data))
	assert.Equal(t, "ij", string(target.chunks[2].Data))
	for i, ch := range target.chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, 3, ch.Total)
		assert.Equal(t, "answers.zip", ch.FileName)
		assert.Equal(t, "up-1", ch.UploadID)
	}
	assert.Equal(t, []int{33, 67, 100}, progress)
}

func TestChunker_GeneratesIDWhenMissing(t *testing.T) {
	c := NewChunker(config.UploadConfig{ChunkSize: 4})
	id, err := c.Upload(context.Background(), newTarget(), bytes.NewReader([]byte("x")), 1, "a.zip", nil)
	require.NoError(t, err)
	assert.Len(t, id, 26)
}

func TestChunker_StopsOnFirstFailure(t *testing.T) {
	c := NewChunker(config.UploadConfig{ChunkSize: 2})
	target := newTarget()
	target.failAt = 1
	var progress []int

	_, err := c.Upload(context.Background(), target, bytes.NewReader([]byte("aabbcc")), 6, "a.zip",
		func(p int) { progress = append(progress, p) })
	assert.ErrorIs(t, err, &domain.DomainError{Code: domain.CodeBackend})
	assert.Len(t, target.chunks, 1)
	assert.Equal(t, []int{33}, progress)
}

func TestChunker_AbortedByContext(t *testing.T) {
	c := NewChunker(config.UploadConfig{ChunkSize: 1})
	ctx, cancel := context.WithCancel(context.Background())
	target := newTarget()
	target.onSend = func(ch Chunk) {
		if ch.Index == 1 {
			cancel()
		}
	}

	_, err := c.Upload(ctx, target, bytes.NewReader([]byte("abcdef")), 6, "a.zip", nil)
	assert.ErrorIs(t, err, domain.ErrUploadAborted)
	assert.Len(t, target.chunks, 2)
}

func TestChunker_Validate(t *testing.T) {
	c := NewChunker(config.UploadConfig{ChunkSize: 4, MaxSize: 8}, ".zip", ".PDF")

	err := c.Validate("a.zip", 0)
	assert.ErrorIs(t, err, &domain.DomainError{Code: domain.CodeInvalidInput})

	err = c.Validate("a.zip", 9)
	assert.ErrorIs(t, err, &domain.DomainError{Code: domain.CodeInvalidInput})

	err = c.Validate("a.exe", 4)
	assert.ErrorIs(t, err, &domain.DomainError{Code: domain.CodeUnsupportedFile})

	assert.NoError(t, c.Validate("A.ZIP", 8))
	assert.NoError(t, c.Validate("scan.pdf", 1))
}

type failingReader struct{}

func (failingReader) ReadAt(p []byte, off int64) (int, error) { return 0, errors.New("disk gone") }

func TestChunker_ReadError(t *testing.T) {
	c := NewChunker(config.UploadConfig{ChunkSize: 4})
	target := newTarget()
	_, err := c.Upload(context.Background(), target, failingReader{}, 4, "a.zip", nil)
	assert.ErrorIs(t, err, &domain.DomainError{Code: domain.CodeInternal})
	assert.Empty(t, target.chunks)
}
