package engine

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/hveda/gallerysync/internal/cache"
	"github.com/hveda/gallerysync/internal/connectivity"
	"github.com/hveda/gallerysync/internal/db"
	apperrors "github.com/hveda/gallerysync/internal/errors"
	"github.com/hveda/gallerysync/internal/models"
	"github.com/hveda/gallerysync/internal/queue"
	"github.com/hveda/gallerysync/internal/reconcile"
	"github.com/hveda/gallerysync/internal/remote"
	"github.com/hveda/gallerysync/internal/remote/remotetest"
	"github.com/hveda/gallerysync/internal/view"
)

type fixture struct {
	engine  *Engine
	monitor *connectivity.Monitor
	fake    *remotetest.Server
	queue   *queue.Store
	cache   *cache.Store
}

func newFixture(t *testing.T, online bool) *fixture {
	t.Helper()

	database, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cacheStore, err := cache.NewStore(database, 200)
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	queueStore, err := queue.NewStore(database)
	if err != nil {
		t.Fatalf("failed to open queue: %v", err)
	}

	fake := remotetest.NewServer()
	fake.SeedContainer(
		models.Container{ID: "session-1", Kind: models.ContainerKindSession, CreatedAt: 1700000000},
		models.Generation{
			ID:        "gen-a",
			Prompt:    "a fox in the snow",
			CreatedAt: 1700000100,
			ImageURLs: []string{"https://cdn/gen-a-0.png", "https://cdn/gen-a-1.png"},
		},
	)
	server := httptest.NewServer(fake.Handler())
	t.Cleanup(server.Close)

	monitor := connectivity.NewMonitor(online)
	client := remote.NewClient(server.URL)
	feed := view.NewFeed(cacheStore, queueStore, client, monitor, 10)
	reconciler := reconcile.New(queueStore, client)
	eng := New(cacheStore, queueStore, feed, reconciler, monitor, client)
	eng.SetUser("alice")

	return &fixture{engine: eng, monitor: monitor, fake: fake, queue: queueStore, cache: cacheStore}
}

func targetA() models.Target {
	return models.Target{GenerationID: "gen-a", MediaType: models.MediaTypeImage, MediaIndex: 0}
}

func TestOfflineScenarioDeleteThenTogglePair(t *testing.T) {
	// Offline: delete A, toggle-favorite A, toggle-favorite A again.
	// After compression the queue holds exactly deleteAsset(A); on
	// reconnect exactly one remote call is issued and A's favorite
	// state is untouched by this session.
	f := newFixture(t, false)
	ctx := context.Background()

	if err := f.engine.DeleteAsset(ctx, targetA()); err != nil {
		t.Fatalf("offline delete must not fail: %v", err)
	}
	if err := f.engine.ToggleFavorite(ctx, targetA()); err != nil {
		t.Fatalf("offline toggle must not fail: %v", err)
	}
	if err := f.engine.ToggleFavorite(ctx, targetA()); err != nil {
		t.Fatalf("offline toggle must not fail: %v", err)
	}

	pending := f.queue.PendingToSync()
	if len(pending) != 1 {
		t.Fatalf("expected exactly 1 entry after compression, got %d", len(pending))
	}
	if pending[0].Kind != models.ActionDeleteAsset {
		t.Fatalf("expected the delete to survive, got %s", pending[0].Kind)
	}

	wasFavorite := f.fake.IsFavorite(targetA())

	f.monitor.SetOnline(true)
	f.engine.HandleConnectivity(ctx, true)

	if f.fake.DeleteCalls() != 1 {
		t.Errorf("expected exactly 1 delete call, got %d", f.fake.DeleteCalls())
	}
	if f.fake.ToggleCalls() != 0 {
		t.Errorf("expected 0 toggle calls, got %d", f.fake.ToggleCalls())
	}
	if f.fake.HasMedia(targetA()) {
		t.Error("media not removed server-side")
	}
	if f.fake.IsFavorite(targetA()) != wasFavorite {
		t.Error("favorite state changed by a cancelled toggle pair")
	}
	if f.queue.Len() != 0 {
		t.Errorf("queue not drained: %d entries", f.queue.Len())
	}
}

func TestOnlineDeleteUpdatesCache(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	before := len(f.engine.Items())

	if err := f.engine.DeleteAsset(ctx, targetA()); err != nil {
		t.Fatalf("online delete failed: %v", err)
	}

	if f.fake.HasMedia(targetA()) {
		t.Error("delete did not reach the remote")
	}
	if got := len(f.engine.Items()); got != before-1 {
		t.Errorf("expected %d items after delete, got %d", before-1, got)
	}
	if f.queue.Len() != 0 {
		t.Error("online delete must not enqueue")
	}
}

func TestOnlineFailurePropagatesToCaller(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.fake.SetUnavailable(true)

	err := f.engine.DeleteAsset(ctx, targetA())
	if err == nil {
		t.Fatal("online failure must surface synchronously")
	}
	if !apperrors.IsTransient(err) {
		t.Errorf("expected transient classification, got %v", err)
	}
	if f.queue.Len() != 0 {
		t.Error("online failure must not fall back to the queue")
	}
}

func TestOfflineToggleIsOptimistic(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	gen := models.Generation{ID: "gen-a", CreatedAt: 1700000100,
		ImageURLs: []string{"https://cdn/gen-a-0.png"}}
	f.cache.SetAssets(gen.Assets())

	f.engine.ToggleFavorite(ctx, targetA())

	items := f.engine.Items()
	if len(items) != 1 || !items[0].Favorite {
		t.Error("optimistic toggle not reflected immediately")
	}
}

func TestInitialMountLoadsFirstPage(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := len(f.engine.Items()); got != 2 {
		t.Errorf("expected 2 items after initial mount, got %d", got)
	}
	if f.engine.HasMore() {
		t.Error("one container should not report more pages")
	}
}

func TestReconnectTransitionDrainsQueue(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	f.engine.DeleteAsset(ctx, targetA())

	// Start wired the subscription: the transition itself triggers the
	// drain, no explicit call needed.
	f.monitor.SetOnline(true)

	if f.fake.DeleteCalls() != 1 {
		t.Errorf("expected 1 delete call after reconnect, got %d", f.fake.DeleteCalls())
	}
	if f.queue.Len() != 0 {
		t.Error("queue not drained on reconnect")
	}
}

func TestUserSwitchResetsEverything(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	gen := models.Generation{ID: "gen-a", CreatedAt: 1700000100,
		ImageURLs: []string{"https://cdn/gen-a-0.png"}}
	f.cache.SetAssets(gen.Assets())
	f.engine.DeleteAsset(ctx, targetA())

	f.engine.SetUser("bob")

	if f.cache.User() != "bob" {
		t.Errorf("owner not switched: %q", f.cache.User())
	}
	if f.cache.Len() != 0 {
		t.Error("cache leaked across users")
	}
	if f.queue.Len() != 0 {
		t.Error("queue leaked across users")
	}
	if len(f.engine.Items()) != 0 {
		t.Error("view leaked across users")
	}
}

func TestSignOutWipesLocalState(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	gen := models.Generation{ID: "gen-a", CreatedAt: 1700000100,
		ImageURLs: []string{"https://cdn/gen-a-0.png"}}
	f.cache.SetAssets(gen.Assets())
	f.engine.ToggleFavorite(ctx, targetA())

	f.engine.SignOut()

	if f.cache.User() != "" {
		t.Error("owner not cleared on sign-out")
	}
	if f.cache.Len() != 0 || f.queue.Len() != 0 {
		t.Error("sign-out left local state behind")
	}
}

func TestForegroundTriggerRequiresOnline(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.engine.DeleteAsset(ctx, targetA())

	f.engine.HandleForeground(ctx)
	if f.fake.DeleteCalls() != 0 {
		t.Error("offline foreground trigger must not call the remote")
	}

	f.monitor.SetOnline(true)
	f.engine.HandleForeground(ctx)
	if f.fake.DeleteCalls() != 1 {
		t.Errorf("expected 1 delete call after online foreground, got %d", f.fake.DeleteCalls())
	}
}
