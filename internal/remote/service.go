// Package remote defines the asset service surface the sync core consumes
// and provides its HTTP client. The service itself is an external
// collaborator; only the calls issued and the responses expected are
// modeled here.
package remote

import (
	"context"

	"github.com/hveda/gallerysync/internal/models"
)

// Service is the remote catalog surface.
//
// Mutations fail with a NOT_FOUND-coded error when the target is already
// absent; the reconciliation loop converges on that instead of failing.
type Service interface {
	// ListContainers lists the containers that may hold media.
	ListContainers(ctx context.Context) ([]models.Container, error)

	// ListContainerItems lists the generations inside one container.
	ListContainerItems(ctx context.Context, containerID string) ([]models.Generation, error)

	// DeleteMedia deletes one media entry.
	DeleteMedia(ctx context.Context, target models.Target) error

	// ToggleFavorite flips the favorite state of one media entry.
	ToggleFavorite(ctx context.Context, target models.Target) error

	// ListFavorites lists the user's favorite marks.
	ListFavorites(ctx context.Context) ([]models.FavoriteMark, error)
}
