package reconcile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hveda/gallerysync/internal/db"
	apperrors "github.com/hveda/gallerysync/internal/errors"
	"github.com/hveda/gallerysync/internal/models"
	"github.com/hveda/gallerysync/internal/queue"
)

// fakeRemote records mutation calls and returns scripted errors.
type fakeRemote struct {
	mu      sync.Mutex
	calls   []string
	errs    map[string]error // keyed by target key
	blockCh chan struct{}    // when set, calls block until closed
}

func (f *fakeRemote) ListContainers(ctx context.Context) ([]models.Container, error) {
	return nil, nil
}

func (f *fakeRemote) ListContainerItems(ctx context.Context, containerID string) ([]models.Generation, error) {
	return nil, nil
}

func (f *fakeRemote) ListFavorites(ctx context.Context) ([]models.FavoriteMark, error) {
	return nil, nil
}

func (f *fakeRemote) DeleteMedia(ctx context.Context, target models.Target) error {
	return f.record("delete", target)
}

func (f *fakeRemote) ToggleFavorite(ctx context.Context, target models.Target) error {
	return f.record("toggle", target)
}

func (f *fakeRemote) record(op string, target models.Target) error {
	if f.blockCh != nil {
		<-f.blockCh
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+" "+target.Key())
	if err, ok := f.errs[target.Key()]; ok {
		return err
	}
	return nil
}

func (f *fakeRemote) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func setup(t *testing.T) (*queue.Store, *fakeRemote, *Reconciler) {
	t.Helper()
	database, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	q, err := queue.NewStore(database)
	if err != nil {
		t.Fatalf("failed to open queue: %v", err)
	}
	remote := &fakeRemote{errs: make(map[string]error)}
	return q, remote, New(q, remote)
}

func target(id string) models.Target {
	return models.Target{GenerationID: id, MediaType: models.MediaTypeImage, MediaIndex: 0}
}

func TestEmptyQueuePass(t *testing.T) {
	_, remote, r := setup(t)

	result, err := r.TrySync(context.Background())
	if err != nil {
		t.Fatalf("TrySync failed: %v", err)
	}
	if result.Total != 0 || result.Dropped {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(remote.callLog()) != 0 {
		t.Error("no remote calls expected on an empty queue")
	}
}

func TestSuccessfulDrain(t *testing.T) {
	q, remote, r := setup(t)
	q.Enqueue(models.ActionDeleteAsset, target("gen-1"))
	q.Enqueue(models.ActionToggleFavorite, target("gen-2"))

	result, err := r.TrySync(context.Background())
	if err != nil {
		t.Fatalf("TrySync failed: %v", err)
	}
	if result.Applied != 2 || result.Failed != 0 {
		t.Errorf("unexpected result: %+v", result)
	}

	calls := remote.callLog()
	if len(calls) != 2 || calls[0] != "delete gen-1:image:0" || calls[1] != "toggle gen-2:image:0" {
		t.Errorf("unexpected calls: %v", calls)
	}

	// Synced entries are swept at the end of the pass.
	if q.Len() != 0 {
		t.Errorf("expected swept queue, got %d entries", q.Len())
	}
}

func TestNotFoundConvergesAsSynced(t *testing.T) {
	q, remote, r := setup(t)
	q.Enqueue(models.ActionDeleteAsset, target("gen-gone"))
	remote.errs["gen-gone:image:0"] = apperrors.New(apperrors.CodeNotFound, "media not found")

	result, err := r.TrySync(context.Background())
	if err != nil {
		t.Fatalf("TrySync failed: %v", err)
	}
	if result.Converged != 1 || result.Failed != 0 {
		t.Errorf("expected convergence, got %+v", result)
	}
	if q.Len() != 0 {
		t.Error("converged entry should be swept, not left failed")
	}
}

func TestFailedEntryDoesNotBlockTheRest(t *testing.T) {
	q, remote, r := setup(t)
	q.Enqueue(models.ActionDeleteAsset, target("gen-bad"))
	q.Enqueue(models.ActionDeleteAsset, target("gen-ok"))
	remote.errs["gen-bad:image:0"] = apperrors.New(apperrors.CodeValidation, "rejected")

	result, err := r.TrySync(context.Background())
	if err != nil {
		t.Fatalf("TrySync failed: %v", err)
	}
	if result.Applied != 1 || result.Failed != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	pending := q.PendingToSync()
	if len(pending) != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", len(pending))
	}
	if pending[0].State != models.ActionStateFailed || pending[0].LastError == "" {
		t.Errorf("failure not recorded: %+v", pending[0])
	}
}

func TestFailedEntryRetriedOnNextPass(t *testing.T) {
	q, remote, r := setup(t)
	q.Enqueue(models.ActionDeleteAsset, target("gen-flaky"))
	remote.errs["gen-flaky:image:0"] = apperrors.New(apperrors.CodeTransient, "service unavailable")

	r.TrySync(context.Background())
	if len(q.PendingToSync()) != 1 {
		t.Fatal("transient failure should keep the entry eligible")
	}

	// Next trigger succeeds.
	delete(remote.errs, "gen-flaky:image:0")
	result, _ := r.TrySync(context.Background())
	if result.Applied != 1 {
		t.Errorf("retry did not apply: %+v", result)
	}
	if q.Len() != 0 {
		t.Error("entry not swept after successful retry")
	}
}

func TestConcurrentTriggerIsDropped(t *testing.T) {
	q, remote, r := setup(t)
	q.Enqueue(models.ActionDeleteAsset, target("gen-1"))
	remote.blockCh = make(chan struct{})

	firstDone := make(chan struct{})
	go func() {
		r.TrySync(context.Background())
		close(firstDone)
	}()

	// Wait for the first pass to take the guard.
	deadline := time.After(2 * time.Second)
	for !r.Running() {
		select {
		case <-deadline:
			t.Fatal("first pass never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	result, err := r.TrySync(context.Background())
	if err != nil {
		t.Fatalf("TrySync failed: %v", err)
	}
	if !result.Dropped {
		t.Error("trigger during an in-flight pass must be dropped")
	}

	close(remote.blockCh)
	<-firstDone
}

func TestCancelledContextLeavesRemainderQueued(t *testing.T) {
	q, _, r := setup(t)
	q.Enqueue(models.ActionDeleteAsset, target("gen-1"))
	q.Enqueue(models.ActionDeleteAsset, target("gen-2"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.TrySync(ctx)
	if err != nil {
		t.Fatalf("TrySync failed: %v", err)
	}
	if result.Applied != 0 {
		t.Errorf("no entries should apply under a cancelled context: %+v", result)
	}
	if len(q.PendingToSync()) != 2 {
		t.Error("remainder must stay queued for the next trigger")
	}
}

func TestProgressHook(t *testing.T) {
	q, _, r := setup(t)
	q.Enqueue(models.ActionDeleteAsset, target("gen-1"))
	q.Enqueue(models.ActionDeleteAsset, target("gen-2"))

	var reports []int
	r.OnProgress = func(done, total int) {
		if total != 2 {
			t.Errorf("unexpected total: %d", total)
		}
		reports = append(reports, done)
	}

	r.TrySync(context.Background())
	if len(reports) != 2 || reports[0] != 1 || reports[1] != 2 {
		t.Errorf("unexpected progress reports: %v", reports)
	}
}
