package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/hveda/gallerysync/internal/errors"
	"github.com/hveda/gallerysync/internal/models"
	"github.com/hveda/gallerysync/internal/remote/remotetest"
)

func newTestClient(t *testing.T) (*Client, *remotetest.Server) {
	t.Helper()
	fake := remotetest.NewServer()
	server := httptest.NewServer(fake.Handler())
	t.Cleanup(server.Close)
	return NewClient(server.URL), fake
}

func seedOne(fake *remotetest.Server) models.Target {
	fake.SeedContainer(
		models.Container{ID: "session-1", Kind: models.ContainerKindSession, CreatedAt: 1700000000},
		models.Generation{
			ID:          "gen-1",
			Prompt:      "city at night",
			CreatedAt:   1700000100,
			AspectRatio: "3:2",
			ImageURLs:   []string{"https://cdn/gen-1-0.png"},
		},
	)
	return models.Target{GenerationID: "gen-1", MediaType: models.MediaTypeImage, MediaIndex: 0}
}

func TestListContainers(t *testing.T) {
	client, fake := newTestClient(t)
	seedOne(fake)

	containers, err := client.ListContainers(context.Background())
	if err != nil {
		t.Fatalf("ListContainers failed: %v", err)
	}
	if len(containers) != 1 || containers[0].ID != "session-1" {
		t.Errorf("unexpected containers: %+v", containers)
	}
}

func TestListContainerItems(t *testing.T) {
	client, fake := newTestClient(t)
	seedOne(fake)

	generations, err := client.ListContainerItems(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("ListContainerItems failed: %v", err)
	}
	if len(generations) != 1 || generations[0].Prompt != "city at night" {
		t.Errorf("unexpected generations: %+v", generations)
	}
	if generations[0].AspectRatio != "3:2" {
		t.Errorf("aspect ratio lost: %q", generations[0].AspectRatio)
	}
}

func TestDeleteMedia(t *testing.T) {
	client, fake := newTestClient(t)
	target := seedOne(fake)

	if err := client.DeleteMedia(context.Background(), target); err != nil {
		t.Fatalf("DeleteMedia failed: %v", err)
	}
	if fake.HasMedia(target) {
		t.Error("media still present after delete")
	}

	// Deleting again reports the target as already absent.
	err := client.DeleteMedia(context.Background(), target)
	if !apperrors.Is(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestToggleFavorite(t *testing.T) {
	client, fake := newTestClient(t)
	target := seedOne(fake)

	if err := client.ToggleFavorite(context.Background(), target); err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}
	if !fake.IsFavorite(target) {
		t.Error("toggle did not set the favorite")
	}
	if err := client.ToggleFavorite(context.Background(), target); err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if fake.IsFavorite(target) {
		t.Error("toggle is not an involution")
	}
}

func TestToggleFavoriteUnknownGeneration(t *testing.T) {
	client, fake := newTestClient(t)
	seedOne(fake)

	err := client.ToggleFavorite(context.Background(), models.Target{
		GenerationID: "gen-missing", MediaType: models.MediaTypeImage, MediaIndex: 0,
	})
	if !apperrors.Is(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestListFavorites(t *testing.T) {
	client, fake := newTestClient(t)
	target := seedOne(fake)
	fake.SeedFavorite(target)

	favorites, err := client.ListFavorites(context.Background())
	if err != nil {
		t.Fatalf("ListFavorites failed: %v", err)
	}
	if len(favorites) != 1 || favorites[0].Target() != target {
		t.Errorf("unexpected favorites: %+v", favorites)
	}
}

func TestServiceUnavailableIsTransient(t *testing.T) {
	client, fake := newTestClient(t)
	target := seedOne(fake)
	fake.SetUnavailable(true)

	err := client.DeleteMedia(context.Background(), target)
	if !apperrors.IsTransient(err) {
		t.Errorf("expected transient classification, got %v", err)
	}
}

func TestConnectionFailureIsTransient(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")

	_, err := client.ListContainers(context.Background())
	if !apperrors.IsTransient(err) {
		t.Errorf("expected transient classification, got %v", err)
	}
}

func TestAuthStatusMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithToken("stale"))
	_, err := client.ListContainers(context.Background())
	if !apperrors.Is(err, apperrors.CodeAuth) {
		t.Errorf("expected AUTH_FAILED, got %v", err)
	}
}

func TestValidationStatusMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad index", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.DeleteMedia(context.Background(), models.Target{
		GenerationID: "gen-1", MediaType: models.MediaTypeImage, MediaIndex: -1,
	})
	if !apperrors.Is(err, apperrors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestBodyCodeWinsOverStatus(t *testing.T) {
	// A proxy may rewrite the status; the structured body code decides.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"NOT_FOUND","message":"media not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.DeleteMedia(context.Background(), models.Target{
		GenerationID: "gen-1", MediaType: models.MediaTypeImage, MediaIndex: 0,
	})
	if !apperrors.Is(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND from body code, got %v", err)
	}
}
