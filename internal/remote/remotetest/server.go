// Package remotetest provides an in-process fake asset service. It backs
// the HTTP client tests and the CLI's --fake mode, implementing the same
// surface a real deployment exposes: container listing, per-container
// generation listing, single-media deletion, favorite toggling.
package remotetest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"github.com/hveda/gallerysync/internal/models"
)

// Server is a seedable fake asset service.
type Server struct {
	mu          sync.Mutex
	containers  []models.Container
	generations map[string][]models.Generation // keyed by container id
	favorites   map[models.Target]struct{}
	unavailable bool
	failItems   map[string]bool // container ids whose item listing fails
	fetchCounts map[string]int
	deleteCalls int
	toggleCalls int
}

// NewServer creates an empty fake service.
func NewServer() *Server {
	return &Server{
		generations: make(map[string][]models.Generation),
		favorites:   make(map[models.Target]struct{}),
		failItems:   make(map[string]bool),
		fetchCounts: make(map[string]int),
	}
}

// Handler returns the HTTP handler for the service.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/v1/containers", s.handleListContainers).Methods(http.MethodGet)
	r.HandleFunc("/v1/containers/{id}/generations", s.handleListGenerations).Methods(http.MethodGet)
	r.HandleFunc("/v1/generations/{gid}/media/{mtype}/{index}", s.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/v1/generations/{gid}/media/{mtype}/{index}/favorite", s.handleToggle).Methods(http.MethodPost)
	r.HandleFunc("/v1/favorites", s.handleListFavorites).Methods(http.MethodGet)
	return r
}

// SeedContainer registers a container and its generations.
func (s *Server) SeedContainer(container models.Container, generations ...models.Generation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.containers = append(s.containers, container)
	for i := range generations {
		generations[i].ContainerID = container.ID
	}
	s.generations[container.ID] = append(s.generations[container.ID], generations...)
}

// SeedFavorite marks a target favorited.
func (s *Server) SeedFavorite(target models.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites[target] = struct{}{}
}

// SetUnavailable makes every request fail with 503 while set, simulating
// a service outage.
func (s *Server) SetUnavailable(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = down
}

// FailContainerItems makes the generation listing for one container fail
// with 503 while set, leaving the container index reachable.
func (s *Server) FailContainerItems(containerID string, down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failItems[containerID] = down
}

// FetchCount reports how many times a container's generations were listed.
func (s *Server) FetchCount(containerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCounts[containerID]
}

// DeleteCalls reports how many delete requests arrived.
func (s *Server) DeleteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteCalls
}

// ToggleCalls reports how many favorite-toggle requests arrived.
func (s *Server) ToggleCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toggleCalls
}

// IsFavorite reports server-side favorite state for a target.
func (s *Server) IsFavorite(target models.Target) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.favorites[target]
	return ok
}

// HasMedia reports whether the target still exists server-side.
func (s *Server) HasMedia(target models.Target) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _, ok := s.lookupLocked(target)
	return ok
}

func (s *Server) handleListContainers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		writeError(w, http.StatusServiceUnavailable, "TRANSIENT", "service unavailable")
		return
	}
	writeJSON(w, map[string]interface{}{"containers": s.containers})
}

func (s *Server) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable || s.failItems[id] {
		writeError(w, http.StatusServiceUnavailable, "TRANSIENT", "service unavailable")
		return
	}
	s.fetchCounts[id]++
	generations, ok := s.generations[id]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "container not found")
		return
	}
	writeJSON(w, map[string]interface{}{"generations": generations})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	target, ok := parseTarget(mux.Vars(r))
	if !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed target")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	if s.unavailable {
		writeError(w, http.StatusServiceUnavailable, "TRANSIENT", "service unavailable")
		return
	}

	gen, idx, found := s.lookupLocked(target)
	if !found {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "media not found")
		return
	}
	// Blank the slot instead of shifting, so later indices stay valid.
	if target.MediaType == models.MediaTypeImage {
		gen.ImageURLs[idx] = ""
	} else {
		gen.VideoURLs[idx] = ""
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	target, ok := parseTarget(mux.Vars(r))
	if !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed target")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.toggleCalls++
	if s.unavailable {
		writeError(w, http.StatusServiceUnavailable, "TRANSIENT", "service unavailable")
		return
	}

	if !s.generationExistsLocked(target.GenerationID) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "generation not found")
		return
	}
	if _, fav := s.favorites[target]; fav {
		delete(s.favorites, target)
	} else {
		s.favorites[target] = struct{}{}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		writeError(w, http.StatusServiceUnavailable, "TRANSIENT", "service unavailable")
		return
	}
	marks := make([]models.FavoriteMark, 0, len(s.favorites))
	for target := range s.favorites {
		marks = append(marks, models.MarkFor(target))
	}
	writeJSON(w, map[string]interface{}{"favorites": marks})
}

// lookupLocked finds the generation and media index a target points at.
func (s *Server) lookupLocked(target models.Target) (*models.Generation, int, bool) {
	for _, generations := range s.generations {
		for i := range generations {
			gen := &generations[i]
			if gen.ID != target.GenerationID {
				continue
			}
			urls := gen.ImageURLs
			if target.MediaType == models.MediaTypeVideo {
				urls = gen.VideoURLs
			}
			if target.MediaIndex < 0 || target.MediaIndex >= len(urls) || urls[target.MediaIndex] == "" {
				return nil, 0, false
			}
			return gen, target.MediaIndex, true
		}
	}
	return nil, 0, false
}

func (s *Server) generationExistsLocked(generationID string) bool {
	for _, generations := range s.generations {
		for i := range generations {
			if generations[i].ID == generationID {
				return true
			}
		}
	}
	return false
}

func parseTarget(vars map[string]string) (models.Target, bool) {
	idx, err := strconv.Atoi(vars["index"])
	if err != nil {
		return models.Target{}, false
	}
	target := models.Target{
		GenerationID: vars["gid"],
		MediaType:    models.MediaType(vars["mtype"]),
		MediaIndex:   idx,
	}
	if target.GenerationID == "" || !target.MediaType.Valid() {
		return models.Target{}, false
	}
	return target, true
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"code": code, "message": message})
}
