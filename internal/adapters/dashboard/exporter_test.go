package dashboard

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"lifeexp/internal/blob"
	"lifeexp/internal/chart"
	"lifeexp/internal/dataset"
	"lifeexp/internal/render"
)

const workerCSV = `country,lat,lon,median_age_total,median_age_male,median_age_female,map_ref,life_exp_total,life_exp_male,life_exp_female
Japan,36.0,138.0,47.3,46.0,48.7,Asia,85.3,81.9,88.9
Chad,15.0,19.0,17.8,16.2,19.3,Africa,50.6,49.3,52.0
`

func workerDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Read(strings.NewReader(workerCSV), "worker.csv")
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	return ds
}

// gatedStore blocks every Put until release is closed.
type gatedStore struct {
	blob.Store
	started chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{Store: blob.NewMemory(), started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gatedStore) Put(ctx context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	select {
	case g.started <- struct{}{}:
	default:
	}
	select {
	case <-g.release:
	case <-ctx.Done():
		return blob.Info{}, ctx.Err()
	}
	return g.Store.Put(ctx, key, r, opts)
}

type failingStore struct{ blob.Store }

func (failingStore) Put(context.Context, string, io.Reader, blob.PutOptions) (blob.Info, error) {
	return blob.Info{}, errors.New("disk full")
}

type signingStore struct{ blob.Store }

func (signingStore) PresignURL(_ context.Context, key string, _ blob.SignedURLOptions) (string, error) {
	return "https://signed.example/" + key, nil
}

func waitFor(t *testing.T, w *Worker, id string, status ExportStatus) ExportRecord {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		record, ok := w.GetExport(id)
		if !ok {
			t.Fatalf("export %s not found", id)
		}
		if record.Status == status {
			return record
		}
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s, last status %s (%s)", status, record.Status, record.Error)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWorkerProcessesExport(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store := blob.NewMemory()
	worker := NewWorker(workerDataset(t), store, WorkerOptions{Logger: zap.New(core)})
	worker.Start()
	t.Cleanup(func() { _ = worker.Stop(context.Background()) })

	record, err := worker.EnqueueExport(context.Background(), ExportInput{
		Selection:   chart.Selection{Countries: []string{"Japan", " ", "Japan", "Atlantis"}, Region: "none"},
		Formats:     []render.Format{render.FormatJSON, render.FormatXLSX, render.FormatJSON, render.FormatSVG},
		RequestedBy: "analyst",
	})
	if err != nil {
		t.Fatalf("enqueue export: %v", err)
	}
	if diff := cmp.Diff([]render.Format{render.FormatJSON, render.FormatXLSX, render.FormatSVG}, record.Formats); diff != "" {
		t.Fatalf("formats (-want +got):\n%s", diff)
	}
	if record.Title != "Life Expectancy at Birth 2017 Japan, Atlantis" {
		t.Fatalf("title = %q", record.Title)
	}
	if record.Selection.Region != chart.NoRegion {
		t.Fatalf("region = %q", record.Selection.Region)
	}

	done := waitFor(t, worker, record.ID, ExportStatusSucceeded)
	if done.CompletedAt == nil || len(done.Artifacts) != 3 {
		t.Fatalf("unexpected completed record %+v", done)
	}
	keys, err := store.List(context.Background(), "exports/"+record.ID+"/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []string
	for _, info := range keys {
		got = append(got, info.Key)
		if info.Metadata["export-id"] != record.ID {
			t.Fatalf("missing export-id metadata on %s", info.Key)
		}
	}
	want := []string{
		"exports/" + record.ID + "/scatter.json",
		"exports/" + record.ID + "/scatter.svg",
		"exports/" + record.ID + "/scatter.xlsx",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("stored keys (-want +got):\n%s", diff)
	}

	var statuses []string
	for _, entry := range logs.FilterMessage("export audit").All() {
		statuses = append(statuses, entry.ContextMap()["status"].(string))
		if entry.ContextMap()["actor"] != "analyst" {
			t.Fatalf("audit actor = %v", entry.ContextMap()["actor"])
		}
	}
	if diff := cmp.Diff([]string{"queued", "running", "succeeded"}, statuses); diff != "" {
		t.Fatalf("audit trail (-want +got):\n%s", diff)
	}
}

func TestWorkerDefaultsAndRejectsFormats(t *testing.T) {
	worker := NewWorker(workerDataset(t), blob.NewMemory(), WorkerOptions{})
	record, err := worker.EnqueueExport(context.Background(), ExportInput{})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if diff := cmp.Diff([]render.Format{render.FormatPNG, render.FormatCSV}, record.Formats); diff != "" {
		t.Fatalf("default formats (-want +got):\n%s", diff)
	}

	_, err = worker.EnqueueExport(context.Background(), ExportInput{Formats: []render.Format{render.FormatHTML}})
	if !errors.Is(err, render.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestWorkerEnqueueRequiresSourceAndStore(t *testing.T) {
	if _, err := NewWorker(nil, blob.NewMemory(), WorkerOptions{}).EnqueueExport(context.Background(), ExportInput{}); err == nil {
		t.Fatalf("expected error without source")
	}
	if _, err := NewWorker(workerDataset(t), nil, WorkerOptions{}).EnqueueExport(context.Background(), ExportInput{}); err == nil {
		t.Fatalf("expected error without store")
	}
}

func TestWorkerEnqueueQueueFull(t *testing.T) {
	worker := NewWorker(workerDataset(t), blob.NewMemory(), WorkerOptions{QueueSize: 2})
	for i := 0; i < cap(worker.queue); i++ {
		if _, err := worker.EnqueueExport(context.Background(), ExportInput{}); err != nil {
			t.Fatalf("unexpected enqueue error at %d: %v", i, err)
		}
	}
	if _, err := worker.EnqueueExport(context.Background(), ExportInput{}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	worker.mu.RLock()
	jobs := len(worker.jobs)
	worker.mu.RUnlock()
	if jobs != 2 {
		t.Fatalf("rejected export should not be tracked, have %d jobs", jobs)
	}
}

func TestWorkerStoreFailure(t *testing.T) {
	worker := NewWorker(workerDataset(t), failingStore{blob.NewMemory()}, WorkerOptions{})
	worker.Start()
	t.Cleanup(func() { _ = worker.Stop(context.Background()) })

	record, err := worker.EnqueueExport(context.Background(), ExportInput{Formats: []render.Format{render.FormatCSV}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	failed := waitFor(t, worker, record.ID, ExportStatusFailed)
	if !strings.Contains(failed.Error, "disk full") || failed.CompletedAt == nil {
		t.Fatalf("unexpected failed record %+v", failed)
	}
}

func TestWorkerUsesPresignedURL(t *testing.T) {
	worker := NewWorker(workerDataset(t), signingStore{blob.NewMemory()}, WorkerOptions{})
	worker.Start()
	t.Cleanup(func() { _ = worker.Stop(context.Background()) })

	record, err := worker.EnqueueExport(context.Background(), ExportInput{Formats: []render.Format{render.FormatCSV}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	done := waitFor(t, worker, record.ID, ExportStatusSucceeded)
	if want := "https://signed.example/exports/" + record.ID + "/scatter.csv"; done.Artifacts[0].URL != want {
		t.Fatalf("url = %q, want %q", done.Artifacts[0].URL, want)
	}
}

func TestWorkerStopDrainsQueue(t *testing.T) {
	store := newGatedStore()
	worker := NewWorker(workerDataset(t), store, WorkerOptions{})
	worker.Start()

	first, err := worker.EnqueueExport(context.Background(), ExportInput{Formats: []render.Format{render.FormatCSV}})
	if err != nil {
		t.Fatalf("enqueue first: %v", err)
	}
	second, err := worker.EnqueueExport(context.Background(), ExportInput{Formats: []render.Format{render.FormatJSON}})
	if err != nil {
		t.Fatalf("enqueue second: %v", err)
	}
	select {
	case <-store.started:
	case <-time.After(time.Second):
		t.Fatalf("worker did not start processing")
	}

	stopped := make(chan error, 1)
	go func() { stopped <- worker.Stop(context.Background()) }()

	deadline := time.Now().Add(time.Second)
	for {
		if _, err := worker.EnqueueExport(context.Background(), ExportInput{}); errors.Is(err, ErrWorkerStopped) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("enqueue still accepted after Stop")
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(store.release)
	if err := <-stopped; err != nil {
		t.Fatalf("stop: %v", err)
	}
	for _, id := range []string{first.ID, second.ID} {
		record, _ := worker.GetExport(id)
		if record.Status != ExportStatusSucceeded {
			t.Fatalf("export %s not drained: %s %s", id, record.Status, record.Error)
		}
	}
}

func TestWorkerStopContextDeadline(t *testing.T) {
	store := newGatedStore()
	worker := NewWorker(workerDataset(t), store, WorkerOptions{})
	worker.Start()

	record, err := worker.EnqueueExport(context.Background(), ExportInput{Formats: []render.Format{render.FormatCSV}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	select {
	case <-store.started:
	case <-time.After(time.Second):
		t.Fatalf("worker did not start processing")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	if err := worker.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error from Stop, got %v", err)
	}
	if err := worker.Stop(context.Background()); err != nil {
		t.Fatalf("second stop should succeed: %v", err)
	}
	failed, _ := worker.GetExport(record.ID)
	if failed.Status != ExportStatusFailed {
		t.Fatalf("cancelled export should fail, got %s", failed.Status)
	}
}

func TestExportRecordCopyIsIndependent(t *testing.T) {
	now := time.Now()
	completed := now
	record := &ExportRecord{
		Selection:   chart.Selection{Countries: []string{"Japan"}},
		Formats:     []render.Format{render.FormatCSV},
		Artifacts:   []ExportArtifact{{Key: "a"}},
		CompletedAt: &completed,
	}
	snapshot := record.copy()
	record.Selection.Countries[0] = "Chad"
	record.Formats[0] = render.FormatPNG
	record.Artifacts[0].Key = "b"
	*record.CompletedAt = now.Add(time.Hour)

	if snapshot.Selection.Countries[0] != "Japan" || snapshot.Formats[0] != render.FormatCSV ||
		snapshot.Artifacts[0].Key != "a" || !snapshot.CompletedAt.Equal(now) {
		t.Fatalf("snapshot shares state with record: %+v", snapshot)
	}
}
