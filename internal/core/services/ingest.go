package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/empirf/mdingest/internal/core/domain"
	"github.com/empirf/mdingest/internal/core/ports/driven"
	"github.com/empirf/mdingest/internal/core/ports/driving"
	"github.com/empirf/mdingest/internal/logger"
)

// Ensure Ingestor implements the interface.
var _ driving.Ingestor = (*Ingestor)(nil)

// DefaultWorkers is the default number of files processed concurrently.
const DefaultWorkers = 4

// IngestOptions tune an Ingestor.
type IngestOptions struct {
	// Workers bounds concurrent file processing.
	Workers int

	// DeleteMissing enables the delete path for files that vanished from
	// the listing. When false stored state accumulates.
	DeleteMissing bool

	// FileTypeIdentifier, when set, must equal the payload's
	// "FileTypeIdentifier" field.
	FileTypeIdentifier string
}

// Ingestor mirrors the JSON files of one watched root into per-schema
// tables. Only one pass runs at a time.
type Ingestor struct {
	lister     driven.RemoteLister
	states     driven.StateStore
	resolver   driven.SchemaResolver
	validator  driven.PayloadValidator
	reconciler driven.TableReconciler
	opts       IngestOptions

	// pass is held for the whole of a pass.
	pass sync.Mutex

	// Status tracking
	mu     sync.RWMutex
	status driving.PassStatus
}

// NewIngestor creates an ingestor over the given ports.
func NewIngestor(
	lister driven.RemoteLister,
	states driven.StateStore,
	resolver driven.SchemaResolver,
	validator driven.PayloadValidator,
	reconciler driven.TableReconciler,
	opts IngestOptions,
) *Ingestor {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Ingestor{
		lister:     lister,
		states:     states,
		resolver:   resolver,
		validator:  validator,
		reconciler: reconciler,
		opts:       opts,
		status:     driving.PassStatus{Root: lister.Root(), State: domain.StateIdle},
	}
}

// listing is the materialised result of SCANNING.
type listing struct {
	files   map[string]domain.RemoteEntry
	folders []domain.RemoteEntry
	// unlisted are folders whose contents were not listed, either because
	// their token was unchanged or because listing them failed.
	unlisted []string
	// broken are folders whose listing failed.
	broken []string
}

// work is one file enqueued for processing.
type work struct {
	entry domain.RemoteEntry
	prior *domain.FileState
}

// RunOnce performs one pass: SCANNING, DIFFING, PROCESSING,
// RECONCILING_DELETES and back to IDLE.
func (i *Ingestor) RunOnce(ctx context.Context) (*domain.PassReport, error) {
	report := &domain.PassReport{
		RunID:     uuid.NewString(),
		Root:      i.lister.Root(),
		StartedAt: time.Now(),
		LastState: domain.StateScanning,
	}

	if !i.pass.TryLock() {
		report.EndedAt = time.Now()
		report.Error = domain.ErrPassInProgress.Error()
		return report, domain.ErrPassInProgress
	}
	defer i.pass.Unlock()

	i.begin()
	defer i.setState(domain.StateIdle, false)

	logger.Section("Pass " + report.RunID)
	logger.Info("Scanning %s", report.Root)

	// SCANNING
	l, err := i.scan(ctx, report)
	if err != nil {
		return i.finish(ctx, report, err)
	}

	// DIFFING
	i.setState(domain.StateDiffing, true)
	report.LastState = domain.StateDiffing
	queue, deletes, err := i.diff(ctx, l, report)
	if err != nil {
		return i.finish(ctx, report, err)
	}
	logger.Info("Listed %d files: %d to process, %d unchanged, %d to delete",
		report.Listed, len(queue), report.Unchanged, len(deletes))

	// PROCESSING
	i.setState(domain.StateProcessing, true)
	report.LastState = domain.StateProcessing
	failed := i.process(ctx, queue, report)
	if ctx.Err() == nil {
		i.saveFolders(ctx, l, failed)
	}

	// RECONCILING_DELETES
	if i.opts.DeleteMissing && ctx.Err() == nil {
		i.setState(domain.StateReconcilingDeletes, true)
		report.LastState = domain.StateReconcilingDeletes
		i.reconcileDeletes(ctx, deletes, report)
	}

	return i.finish(ctx, report, ctx.Err())
}

// Status returns the progress of the running pass.
func (i *Ingestor) Status(_ context.Context) (*driving.PassStatus, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	status := i.status
	return &status, nil
}

// scan drains the lister. A root failure or cancellation aborts the pass
// before anything is written.
func (i *Ingestor) scan(ctx context.Context, report *domain.PassReport) (*listing, error) {
	l := &listing{files: make(map[string]domain.RemoteEntry)}
	entries, errs := i.lister.List(ctx, i.skipFolder(ctx))

	var runErr error
	for entries != nil || errs != nil {
		select {
		case entry, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			switch {
			case entry.IsFolder && entry.Skipped:
				report.FoldersSkipped++
				recordFolderSkipped()
				l.unlisted = append(l.unlisted, entry.Path)
			case entry.IsFolder:
				l.folders = append(l.folders, entry)
			default:
				l.files[entry.Path] = entry
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			var folderErr *domain.FolderListingError
			switch {
			case errors.As(err, &folderErr):
				logger.Warn("%v", err)
				report.FolderErrors++
				recordFolderError()
				l.unlisted = append(l.unlisted, folderErr.Path)
				l.broken = append(l.broken, folderErr.Path)
			case errors.Is(err, domain.ErrTransport):
				runErr = err
			case ctx.Err() != nil && errors.Is(err, ctx.Err()):
				runErr = err
			default:
				runErr = &domain.TransportError{URL: report.Root, Err: err}
			}
		}
	}

	if runErr == nil {
		runErr = ctx.Err()
	}
	if runErr != nil {
		return nil, runErr
	}
	report.Listed = len(l.files)
	return l, nil
}

// skipFolder returns the lister callback that prunes folders whose token
// matches the stored one. Nothing is pruned unless the lister declares its
// folder tokens stable.
func (i *Ingestor) skipFolder(ctx context.Context) driven.SkipFunc {
	if !i.lister.StableFolderTokens() {
		return nil
	}
	return func(folder, token string) bool {
		stored, err := i.states.GetFolder(ctx, folder)
		if err != nil {
			return false
		}
		return !domain.TokenChanged(stored.ChangeToken, token)
	}
}

// diff compares the listing with stored state. It returns the files to
// process, sorted by path, and the vanished paths to delete.
func (i *Ingestor) diff(ctx context.Context, l *listing, report *domain.PassReport) ([]work, []string, error) {
	stored, err := i.states.AllPaths(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("reading state: %w", err)
	}

	var queue []work
	for p, entry := range l.files {
		var prior *domain.FileState
		_, known := stored[p]
		if known {
			prior, err = i.states.Get(ctx, p)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				logger.Warn("reading state of %s: %v", p, err)
			}
		}

		if prior != nil && prior.Status == domain.StatusSuccess &&
			!domain.TokenChanged(prior.ChangeToken, entry.ChangeToken()) {
			report.Unchanged++
			recordFile("unchanged")
			continue
		}

		if !known {
			recordFile("new")
			pending := domain.FileState{Path: p, ChangeToken: entry.ChangeToken(), Status: domain.StatusPending}
			if err := i.states.Put(ctx, pending); err != nil {
				logger.Warn("marking %s pending: %v", p, err)
			}
		} else {
			recordFile("changed")
		}
		queue = append(queue, work{entry: entry, prior: prior})
	}
	sort.Slice(queue, func(a, b int) bool { return queue[a].entry.Path < queue[b].entry.Path })

	var deletes []string
	for p := range stored {
		if _, ok := l.files[p]; ok {
			continue
		}
		if underAny(p, l.unlisted) {
			report.Carried++
			continue
		}
		if i.opts.DeleteMissing {
			deletes = append(deletes, p)
		}
	}
	sort.Strings(deletes)

	return queue, deletes, nil
}

// process runs the queue on a bounded pool. It stops scheduling new files
// once ctx is done. The returned set holds the paths that failed.
func (i *Ingestor) process(ctx context.Context, queue []work, report *domain.PassReport) map[string]struct{} {
	var mu sync.Mutex
	failed := make(map[string]struct{})

	var g errgroup.Group
	g.SetLimit(i.opts.Workers)
	for _, w := range queue {
		if ctx.Err() != nil {
			logger.Info("Stopping: %v", ctx.Err())
			break
		}
		w := w
		g.Go(func() error {
			ok, done := i.processOne(ctx, w)
			mu.Lock()
			defer mu.Unlock()
			if !done {
				failed[w.entry.Path] = struct{}{}
				return nil
			}
			report.Processed++
			if ok {
				report.Succeeded++
			} else {
				report.Failed++
				failed[w.entry.Path] = struct{}{}
			}
			return nil
		})
	}
	_ = g.Wait()
	return failed
}

// processOne runs one file through fetch, resolve, validate and upsert and
// records the outcome. done is false when the file was interrupted by
// cancellation, in which case its state is left alone.
func (i *Ingestor) processOne(ctx context.Context, w work) (ok, done bool) {
	start := time.Now()
	defer func() { recordFileDuration(time.Since(start)) }()

	logger.Debug("Processing: %s", w.entry.Path)
	schemaID, identifier, err := i.ingest(ctx, w.entry)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return false, false
	}

	state := domain.FileState{
		Path:        w.entry.Path,
		ChangeToken: w.entry.ChangeToken(),
		Status:      domain.StatusSuccess,
		SchemaID:    schemaID,
		Identifier:  identifier,
		ProcessedAt: time.Now(),
	}
	if err != nil {
		// Keep pointing at the last row actually written.
		state.Status = domain.StatusError
		state.ErrorMessage = err.Error()
		state.SchemaID, state.Identifier = "", ""
		if w.prior != nil {
			state.SchemaID, state.Identifier = w.prior.SchemaID, w.prior.Identifier
		}
		category := domain.Category(err)
		recordFailure(category)
		logger.Warn("Failed %s: %v", w.entry.Path, err)
	}

	// Committed destination writes must be recorded even on shutdown.
	if putErr := i.states.Put(context.WithoutCancel(ctx), state); putErr != nil {
		logger.Error("saving state of %s: %v", w.entry.Path, putErr)
	}

	i.mu.Lock()
	i.status.FilesProcessed++
	if err != nil {
		i.status.ErrorCount++
	}
	i.mu.Unlock()

	return err == nil, true
}

// ingest writes one file to its destination table and returns the schema
// id and identifier it was written under.
func (i *Ingestor) ingest(ctx context.Context, entry domain.RemoteEntry) (string, string, error) {
	data, err := i.lister.Fetch(ctx, entry.Path)
	if err != nil {
		return "", "", fmt.Errorf("fetch %s: %w", entry.Path, err)
	}

	payload, err := domain.DecodePayload(data)
	if err != nil {
		return "", "", err
	}

	if want := i.opts.FileTypeIdentifier; want != "" {
		if got, _ := payload["FileTypeIdentifier"].(string); got != want {
			return "", "", fmt.Errorf("%w: FileTypeIdentifier %q does not match %q", domain.ErrPayload, got, want)
		}
	}

	schema, err := i.resolver.Resolve(ctx, payload.SchemaID())
	if err != nil {
		return "", "", err
	}

	result := i.validator.Validate(payload, schema, domain.BaseName(entry.Path))
	if !result.Valid() {
		return "", "", &domain.ValidationError{SchemaID: schema.ID, Violations: result.Violations}
	}

	row, err := domain.Flatten(payload)
	if err != nil {
		return "", "", err
	}
	clearAbsent(row, schema.Columns)

	if err := i.reconciler.Upsert(ctx, schema.Table, schema.ID, row, result.Identifier, i.location(entry.Path)); err != nil {
		return "", "", err
	}
	return schema.ID, result.Identifier, nil
}

// saveFolders records the tokens of fully listed folders with no failed
// file below them, so that they may be pruned from later listings. A folder
// whose own listing or a descendant's listing failed is never recorded.
func (i *Ingestor) saveFolders(ctx context.Context, l *listing, failed map[string]struct{}) {
	for _, folder := range l.folders {
		if !folderClean(folder.Path, l.broken, failed) {
			continue
		}
		state := domain.FolderState{Path: folder.Path, ChangeToken: folder.ChangeToken(), LastScanned: time.Now()}
		if err := i.states.PutFolder(ctx, state); err != nil {
			logger.Warn("saving folder state of %s: %v", folder.Path, err)
		}
	}
}

// reconcileDeletes removes destination rows and state of vanished files.
// A file that never reached its destination only loses its state.
func (i *Ingestor) reconcileDeletes(ctx context.Context, deletes []string, report *domain.PassReport) {
	for _, p := range deletes {
		if ctx.Err() != nil {
			return
		}

		prior, err := i.states.Get(ctx, p)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			logger.Warn("reading state of %s: %v", p, err)
			continue
		}

		if prior.HasDestination() {
			if err := i.reconciler.Delete(ctx, prior.SchemaID, prior.Identifier); err != nil {
				logger.Warn("Failed to delete %s (%s/%s): %v", p, prior.SchemaID, prior.Identifier, err)
				report.Failed++
				recordFailure(domain.Category(err))
				continue
			}
		}

		if err := i.states.Delete(ctx, p); err != nil {
			logger.Warn("dropping state of %s: %v", p, err)
			continue
		}
		logger.Debug("Deleted: %s", p)
		report.Deleted++
		recordDelete()
	}
}

// finish stamps the report and classifies the pass outcome.
func (i *Ingestor) finish(ctx context.Context, report *domain.PassReport, err error) (*domain.PassReport, error) {
	report.EndedAt = time.Now()

	outcome := "success"
	switch {
	case err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()):
		report.Canceled = true
		report.Error = err.Error()
		outcome = "canceled"
		logger.Info("Pass canceled after %s", report.Duration())
	case err != nil:
		report.Error = err.Error()
		outcome = "failed"
		logger.Error("Pass failed: %v", err)
	default:
		logger.Info("Pass complete in %s: %d processed, %d succeeded, %d failed, %d deleted",
			report.Duration(), report.Processed, report.Succeeded, report.Failed, report.Deleted)
	}
	recordPass(outcome, report.Duration())

	return report, err
}

// location is the source path stored in the destination row.
func (i *Ingestor) location(p string) string {
	return strings.TrimSuffix(i.lister.Root(), "/") + "/" + p
}

func (i *Ingestor) begin() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.status = driving.PassStatus{Root: i.lister.Root(), Running: true, State: domain.StateScanning}
}

func (i *Ingestor) setState(state domain.PassState, running bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.status.State = state
	i.status.Running = running
}

// clearAbsent adds a nil value for every declared column the payload does
// not carry, so that an update replaces the whole row.
func clearAbsent(row map[string]any, columns []string) {
	for _, col := range columns {
		present := false
		for key := range row {
			if strings.EqualFold(key, col) {
				present = true
				break
			}
		}
		if !present {
			row[col] = nil
		}
	}
}

func folderClean(folder string, broken []string, failed map[string]struct{}) bool {
	for _, b := range broken {
		if b == folder || domain.UnderFolder(b, folder) {
			return false
		}
	}
	for p := range failed {
		if domain.UnderFolder(p, folder) {
			return false
		}
	}
	return true
}

func underAny(p string, folders []string) bool {
	for _, f := range folders {
		if domain.UnderFolder(p, f) {
			return true
		}
	}
	return false
}
