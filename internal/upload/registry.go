package upload

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"campus-portal/internal/cache"
	"campus-portal/internal/domain"
	"campus-portal/internal/logger"
	"campus-portal/internal/util"

	"go.uber.org/zap"
)

// Upload states.
const (
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
	StateAborted   = "aborted"
)

const progressTTL = time.Hour

// Status is the observable state of an upload.
type Status struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	Owner     string    `json:"-"`
	Percent   int       `json:"percent"`
	State     string    `json:"state"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type inflight struct {
	cancel context.CancelFunc
	owner  string
}

// Registry tracks in-flight uploads. Cancellation lives in process memory;
// progress is kept in the cache so any instance can report it.
type Registry struct {
	mu      sync.Mutex
	cache   domain.Cache
	uploads map[string]*inflight
	now     func() time.Time
}

func NewRegistry(c domain.Cache) *Registry {
	return &Registry{cache: c, uploads: make(map[string]*inflight), now: time.Now}
}

func progressKey(id string) string {
	return cache.GenerateCacheKey("upload", "progress", id)
}

// Begin registers a new upload and returns its id and a context that is
// canceled by Abort. The context keeps parent's values but not its
// cancellation, so the upload outlives the request that started it.
func (r *Registry) Begin(parent context.Context, owner, fileName string) (string, context.Context) {
	id := util.NewULID()
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	ctx = WithID(ctx, id)

	r.mu.Lock()
	r.uploads[id] = &inflight{cancel: cancel, owner: owner}
	r.mu.Unlock()

	r.write(ctx, id, map[string]string{
		"file_name":  fileName,
		"owner":      owner,
		"percent":    "0",
		"state":      StateRunning,
		"updated_at": r.now().UTC().Format(time.RFC3339Nano),
	})
	return id, ctx
}

// Report records the percentage reached by id.
func (r *Registry) Report(ctx context.Context, id string, percent int) {
	r.write(ctx, id, map[string]string{
		"percent":    strconv.Itoa(percent),
		"updated_at": r.now().UTC().Format(time.RFC3339Nano),
	})
}

// Progress returns the last recorded status of id.
func (r *Registry) Progress(ctx context.Context, id string) (Status, error) {
	fields, err := r.cache.HGetAll(ctx, progressKey(id))
	if err != nil {
		return Status{}, domain.NewInternalError("failed to read upload progress", err)
	}
	if len(fields) == 0 {
		return Status{}, domain.NewNotFoundError("upload " + id + " not found")
	}
	st := Status{
		ID:       id,
		FileName: fields["file_name"],
		Owner:    fields["owner"],
		State:    fields["state"],
		Error:    fields["error"],
	}
	st.Percent, _ = strconv.Atoi(fields["percent"])
	st.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields["updated_at"])
	return st, nil
}

// Abort cancels a running upload. It reports NOT_FOUND when id is not running
// in this process.
func (r *Registry) Abort(ctx context.Context, id string) error {
	r.mu.Lock()
	up, ok := r.uploads[id]
	if ok {
		delete(r.uploads, id)
	}
	r.mu.Unlock()
	if !ok {
		return domain.NewNotFoundError("upload " + id + " is not running")
	}
	up.cancel()
	r.write(ctx, id, map[string]string{
		"state":      StateAborted,
		"updated_at": r.now().UTC().Format(time.RFC3339Nano),
	})
	logger.Get().Info("Upload aborted by user", zap.String("upload_id", id), zap.String("owner", up.owner))
	return nil
}

// Finish closes id with the outcome err. Aborted uploads keep their state.
func (r *Registry) Finish(ctx context.Context, id string, err error) {
	r.mu.Lock()
	up, ok := r.uploads[id]
	if ok {
		delete(r.uploads, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	up.cancel()

	fields := map[string]string{"updated_at": r.now().UTC().Format(time.RFC3339Nano)}
	switch {
	case err == nil:
		fields["state"] = StateCompleted
		fields["percent"] = "100"
	case errors.Is(err, domain.ErrUploadAborted):
		fields["state"] = StateAborted
	default:
		fields["state"] = StateFailed
		fields["error"] = errorMessage(err)
	}
	r.write(ctx, id, fields)
}

// Running returns the number of uploads in flight in this process.
func (r *Registry) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.uploads)
}

func (r *Registry) write(ctx context.Context, id string, fields map[string]string) {
	key := progressKey(id)
	for k, v := range fields {
		if err := r.cache.HSet(ctx, key, k, v); err != nil {
			logger.Get().Warn("Failed to record upload progress", zap.String("upload_id", id), zap.Error(err))
			return
		}
	}
	if err := r.cache.Expire(ctx, key, progressTTL); err != nil {
		logger.Get().Warn("Failed to set upload progress expiry", zap.String("upload_id", id), zap.Error(err))
	}
}

func errorMessage(err error) string {
	var derr *domain.DomainError
	if errors.As(err, &derr) {
		return derr.Message
	}
	return err.Error()
}
