// Package upload stages an accepted file batch for a generation request:
// pass-through for inline transfer, concurrent resumable uploads to the
// storage collaborator otherwise.
package upload

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"planforge/internal/ingest"
)

// Progress is one progress sample for a file in flight.
type Progress struct {
	BytesUploaded int64
	BytesTotal    int64
	Percentage    float64
}

// ProgressFunc receives incremental per-file progress updates.
type ProgressFunc func(fileName string, p Progress)

// Store is the storage collaborator for resumable transfers. Upload
// returns a durable path usable in a generation request, invoking
// onProgress as bytes move.
type Store interface {
	Upload(ctx context.Context, f ingest.File, onProgress func(Progress)) (string, error)
}

// StagedFile is one file ready for the request orchestrator: either the
// raw local handle (inline) or a durable storage path (resumable), never
// both meaningful at once.
type StagedFile struct {
	File        ingest.File
	StoragePath string
}

// TransferError reports a failed upload. There is no automatic retry: a
// failed transfer is terminal for the generation attempt.
type TransferError struct {
	FileName string
	Err      error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("upload of %s failed: %v", e.FileName, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Orchestrator executes the chosen transfer strategy for a batch.
type Orchestrator struct {
	store      Store
	logger     *zap.Logger
	onProgress ProgressFunc

	mu       sync.Mutex
	progress map[string]Progress
}

// NewOrchestrator wires the orchestrator to its storage collaborator.
// onProgress may be nil.
func NewOrchestrator(store Store, logger *zap.Logger, onProgress ProgressFunc) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		store:      store,
		logger:     logger,
		onProgress: onProgress,
		progress:   make(map[string]Progress),
	}
}

// Stage prepares the batch per its strategy. Inline batches are returned
// unchanged with no network action. Resumable batches fan out one upload
// per file with no concurrency bound, join all-or-nothing, and surface the
// first failure; stragglers are cancelled through the group context.
// Progress state is cleared at the start of every attempt and again on
// both success and failure.
func (o *Orchestrator) Stage(ctx context.Context, desc ingest.UploadDescriptor) ([]StagedFile, error) {
	o.clearProgress()

	if desc.Strategy == ingest.StrategyInline {
		staged := make([]StagedFile, len(desc.Files))
		for i, f := range desc.Files {
			staged[i] = StagedFile{File: f}
		}
		return staged, nil
	}

	defer o.clearProgress()

	if o.store == nil {
		return nil, &TransferError{FileName: "", Err: fmt.Errorf("no storage collaborator configured")}
	}

	staged := make([]StagedFile, len(desc.Files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range desc.Files {
		g.Go(func() error {
			o.logger.Debug("uploading file",
				zap.String("name", f.Name), zap.Int64("bytes", f.Size))

			path, err := o.store.Upload(gctx, f, func(p Progress) {
				o.recordProgress(f.Name, p)
			})
			if err != nil {
				return &TransferError{FileName: f.Name, Err: err}
			}
			staged[i] = StagedFile{File: f, StoragePath: path}

			o.logger.Debug("upload complete",
				zap.String("name", f.Name), zap.String("path", path))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		o.logger.Warn("batch upload aborted", zap.Error(err))
		return nil, err
	}
	return staged, nil
}

// Snapshot returns the current per-file progress map.
func (o *Orchestrator) Snapshot() map[string]Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]Progress, len(o.progress))
	for k, v := range o.progress {
		out[k] = v
	}
	return out
}

func (o *Orchestrator) recordProgress(name string, p Progress) {
	o.mu.Lock()
	o.progress[name] = p
	o.mu.Unlock()
	if o.onProgress != nil {
		o.onProgress(name, p)
	}
}

func (o *Orchestrator) clearProgress() {
	o.mu.Lock()
	o.progress = make(map[string]Progress)
	o.mu.Unlock()
}
