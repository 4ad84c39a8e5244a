package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lifeexp/internal/blob"
	"lifeexp/internal/chart"
	"lifeexp/internal/observability"
	"lifeexp/internal/render"
)

// ExportStatus describes the lifecycle stage of an export request.
type ExportStatus string

const (
	ExportStatusQueued    ExportStatus = "queued"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

// DefaultQueueSize bounds the export queue when no size is configured.
const DefaultQueueSize = 32

var (
	// ErrQueueFull is returned by EnqueueExport when the queue has no room.
	ErrQueueFull = errors.New("export queue full")
	// ErrWorkerStopped is returned by EnqueueExport after Stop.
	ErrWorkerStopped = errors.New("export worker stopped")
)

// ExportFormats lists the formats an export may request.
func ExportFormats() []render.Format {
	return []render.Format{render.FormatPNG, render.FormatSVG, render.FormatCSV, render.FormatXLSX, render.FormatJSON}
}

// ExportArtifact captures a stored scatter snapshot.
type ExportArtifact struct {
	Key         string        `json:"key"`
	Format      render.Format `json:"format"`
	ContentType string        `json:"content_type"`
	SizeBytes   int64         `json:"size_bytes"`
	ETag        string        `json:"etag,omitempty"`
	URL         string        `json:"url"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ExportRecord tracks an export request and resulting artifacts.
type ExportRecord struct {
	ID          string           `json:"id"`
	Selection   chart.Selection  `json:"selection"`
	Title       string           `json:"title"`
	Formats     []render.Format  `json:"formats"`
	Status      ExportStatus     `json:"status"`
	Error       string           `json:"error,omitempty"`
	Artifacts   []ExportArtifact `json:"artifacts,omitempty"`
	RequestedBy string           `json:"requested_by,omitempty"`
	Reason      string           `json:"reason,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// ExportInput represents an enqueue request for the worker.
type ExportInput struct {
	Selection   chart.Selection
	Formats     []render.Format
	RequestedBy string
	Reason      string
}

// ExportScheduler queues snapshot exports and exposes their status.
type ExportScheduler interface {
	EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error)
	GetExport(id string) (ExportRecord, bool)
}

// WorkerOptions tunes a Worker. Zero values fall back to defaults.
type WorkerOptions struct {
	QueueSize   int
	ScatterSize render.Size
	// DownloadPrefix builds artifact URLs when the store cannot presign.
	DownloadPrefix string
	Logger         *zap.Logger
	Metrics        *observability.Collector
}

// Worker renders and stores scatter snapshots asynchronously.
type Worker struct {
	source  chart.Source
	store   blob.Store
	opts    WorkerOptions
	logger  *zap.Logger
	metrics *observability.Collector

	queue   chan exportTask
	mu      sync.RWMutex
	jobs    map[string]*ExportRecord
	stopped bool

	stop     chan struct{}
	stopOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

type exportTask struct {
	id  string
	sel chart.Selection
}

// NewWorker constructs an export worker writing into store.
func NewWorker(src chart.Source, store blob.Store, opts WorkerOptions) *Worker {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.DownloadPrefix == "" {
		opts.DownloadPrefix = APIPrefix + "/exports"
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		source:  src,
		store:   store,
		opts:    opts,
		logger:  logger.Named("exports"),
		metrics: opts.Metrics,
		queue:   make(chan exportTask, opts.QueueSize),
		jobs:    make(map[string]*ExportRecord),
		stop:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop refuses new exports, finishes the ones already queued and waits. If
// ctx ends first, in-flight work is cancelled and ctx's error returned.
func (w *Worker) Stop(ctx context.Context) error {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		close(w.stop)
		w.mu.Unlock()
	})
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		w.cancel()
		return nil
	case <-ctx.Done():
		w.cancel()
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stop:
			for {
				select {
				case task := <-w.queue:
					w.process(task)
				default:
					return
				}
			}
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// EnqueueExport schedules an export job and returns the queued record.
func (w *Worker) EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error) {
	if w.source == nil {
		return ExportRecord{}, fmt.Errorf("export source not configured")
	}
	if w.store == nil {
		return ExportRecord{}, fmt.Errorf("export store not configured")
	}
	formats, err := normalizeFormats(input.Formats)
	if err != nil {
		return ExportRecord{}, err
	}

	sel := chart.Selection{
		Countries: input.Selection.SelectedCountries(),
		Region:    chart.ParseRegion(input.Selection.Region),
	}
	now := time.Now().UTC()
	record := ExportRecord{
		ID:          uuid.NewString(),
		Selection:   sel,
		Title:       chart.Title(sel.Countries, sel.Region),
		Formats:     formats,
		Status:      ExportStatusQueued,
		RequestedBy: input.RequestedBy,
		Reason:      input.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return ExportRecord{}, ErrWorkerStopped
	}
	select {
	case w.queue <- exportTask{id: record.ID, sel: sel}:
	default:
		w.mu.Unlock()
		return ExportRecord{}, ErrQueueFull
	}
	w.jobs[record.ID] = &record
	queued := record.copy()
	w.logAudit(record.ID, record.RequestedBy, record.Title, ExportStatusQueued, "")
	w.mu.Unlock()
	return queued, nil
}

// GetExport returns a snapshot of the export record.
func (w *Worker) GetExport(id string) (ExportRecord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return ExportRecord{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(task exportTask) {
	w.mu.RLock()
	record, ok := w.jobs[task.id]
	var formats []render.Format
	if ok {
		formats = append(formats, record.Formats...)
	}
	w.mu.RUnlock()
	if !ok {
		return
	}

	w.updateStatus(task.id, ExportStatusRunning)

	cs := chart.Compose(w.source, task.sel)
	w.metrics.ObserveComposition()

	artifacts := make([]ExportArtifact, 0, len(formats))
	for _, format := range formats {
		payload, err := w.materialize(format, cs)
		if err != nil {
			w.fail(task.id, err.Error())
			return
		}
		artifact, err := w.storeArtifact(task.id, format, payload)
		if err != nil {
			w.fail(task.id, fmt.Sprintf("store artifact failed: %v", err))
			return
		}
		artifacts = append(artifacts, artifact)
	}
	w.complete(task.id, artifacts)
}

func (w *Worker) materialize(format render.Format, cs chart.ChartSeries) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case render.FormatPNG, render.FormatSVG:
		err = render.Scatter(&buf, cs, format, w.opts.ScatterSize)
	case render.FormatCSV:
		err = render.CSV(&buf, cs)
	case render.FormatXLSX:
		err = render.XLSX(&buf, cs)
	case render.FormatJSON:
		err = json.NewEncoder(&buf).Encode(chart.ScatterFigure(cs))
	default:
		err = fmt.Errorf("%w: %s", render.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

func (w *Worker) storeArtifact(id string, format render.Format, payload []byte) (ExportArtifact, error) {
	name := ArtifactName(format)
	key := ArtifactKey(id, format)
	info, err := blob.PutBytes(w.ctx, w.store, key, payload, blob.PutOptions{
		ContentType: format.ContentType(),
		Metadata: map[string]string{
			"export-id": id,
			"format":    string(format),
		},
	})
	if err != nil {
		return ExportArtifact{}, err
	}

	url, err := w.store.PresignURL(w.ctx, key, blob.SignedURLOptions{})
	switch {
	case errors.Is(err, blob.ErrUnsupported):
		url = w.opts.DownloadPrefix + "/" + id + "/artifacts/" + name
	case err != nil:
		return ExportArtifact{}, fmt.Errorf("presign %s: %w", key, err)
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = format.ContentType()
	}
	size := info.Size
	if size == 0 {
		size = int64(len(payload))
	}
	created := info.LastModified
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return ExportArtifact{
		Key:         key,
		Format:      format,
		ContentType: contentType,
		SizeBytes:   size,
		ETag:        info.ETag,
		URL:         url,
		CreatedAt:   created,
	}, nil
}

// ArtifactName is the file name of an export artifact.
func ArtifactName(format render.Format) string {
	return "scatter." + format.Extension()
}

// ArtifactKey is the blob key an export artifact is stored under.
func ArtifactKey(id string, format render.Format) string {
	return path.Join("exports", id, ArtifactName(format))
}

func (w *Worker) updateStatus(id string, status ExportStatus) {
	w.transition(id, status, "", nil)
}

func (w *Worker) complete(id string, artifacts []ExportArtifact) {
	w.transition(id, ExportStatusSucceeded, "", artifacts)
}

func (w *Worker) fail(id, reason string) {
	w.transition(id, ExportStatusFailed, reason, nil)
}

// transition updates the record, counts terminal states and writes the audit
// line under one lock so observers never see them out of order.
func (w *Worker) transition(id string, status ExportStatus, reason string, artifacts []ExportArtifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	defer w.mu.Unlock()
	record, ok := w.jobs[id]
	if !ok {
		return
	}
	record.Status = status
	record.Error = reason
	record.UpdatedAt = now
	switch status {
	case ExportStatusSucceeded:
		record.Artifacts = artifacts
		record.CompletedAt = &now
		w.metrics.ObserveExport(string(status))
	case ExportStatusFailed:
		record.CompletedAt = &now
		w.metrics.ObserveExport(string(status))
	}
	w.logAudit(id, record.RequestedBy, record.Title, status, reason)
}

func (w *Worker) logAudit(id, actor, title string, status ExportStatus, reason string) {
	fields := []zap.Field{
		zap.String("action", "scatter_export"),
		zap.String("export_id", id),
		zap.String("status", string(status)),
		zap.String("actor", actor),
		zap.String("title", title),
	}
	if reason != "" {
		fields = append(fields, zap.String("reason", reason))
		w.logger.Warn("export audit", fields...)
		return
	}
	w.logger.Info("export audit", fields...)
}

func normalizeFormats(formats []render.Format) ([]render.Format, error) {
	if len(formats) == 0 {
		return []render.Format{render.FormatPNG, render.FormatCSV}, nil
	}
	allowed := make(map[render.Format]struct{}, len(ExportFormats()))
	for _, f := range ExportFormats() {
		allowed[f] = struct{}{}
	}
	out := make([]render.Format, 0, len(formats))
	seen := make(map[render.Format]struct{}, len(formats))
	for _, f := range formats {
		if _, ok := allowed[f]; !ok {
			return nil, fmt.Errorf("%w: %q not exportable", render.ErrUnsupportedFormat, f)
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}

func (r *ExportRecord) copy() ExportRecord {
	out := *r
	out.Selection.Countries = append([]string(nil), r.Selection.Countries...)
	out.Formats = append([]render.Format(nil), r.Formats...)
	if r.Artifacts != nil {
		out.Artifacts = append([]ExportArtifact(nil), r.Artifacts...)
	}
	if r.CompletedAt != nil {
		completed := *r.CompletedAt
		out.CompletedAt = &completed
	}
	return out
}
