// Package handlers contains the HTTP handler implementations for the
// ContestHub API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"contesthub/internal/cache"
	"contesthub/internal/core"
	"contesthub/internal/types"
)

// Listing pagination bounds. Limits beyond maxPageLimit are rejected rather
// than clamped so clients learn about the contract.
const (
	defaultPage  = 1
	defaultLimit = 10
	maxPageLimit = 100
)

// ContestStore defines the repository contract for the contest handler.
// Defined locally to avoid coupling the handler to the db package's concrete
// repository.
type ContestStore interface {
	ListByStatus(ctx context.Context, status types.ContestStatus, page, limit int) (types.ContestPage, error)
	ListByPlatforms(ctx context.Context, platforms []types.Platform) ([]types.Contest, error)
	GetByID(ctx context.Context, id string) (*types.Contest, error)
	SetSolutionLink(ctx context.Context, id, videoURL string) (*types.Contest, error)
}

// ListingCache is the read-through cache in front of listing queries.
type ListingCache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	InvalidateContestListings(ctx context.Context)
}

// ContestHandler maps HTTP requests to contest store and cache operations.
type ContestHandler struct {
	store  ContestStore
	cache  ListingCache
	logger *slog.Logger
}

// NewContestHandler creates a ContestHandler with the provided dependencies.
// cache may be nil, in which case every listing goes to the store.
func NewContestHandler(store ContestStore, listingCache ListingCache, logger *slog.Logger) *ContestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContestHandler{
		store:  store,
		cache:  listingCache,
		logger: logger,
	}
}

// RegisterRoutes mounts the contest endpoints onto the mux.
func (h *ContestHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListByPlatforms)
	r.Get("/upcoming", h.HandleListUpcoming)
	r.Get("/past", h.HandleListPast)
	r.Get("/{contestID}", h.HandleGetByID)
	r.Put("/{contestID}/solution-link", h.HandleSetSolutionLink)
}

// HandleListUpcoming handles GET /v1/contests/upcoming.
func (h *ContestHandler) HandleListUpcoming(w http.ResponseWriter, r *http.Request) {
	h.handleStatusListing(w, r, types.StatusUpcoming, cache.KeyUpcoming)
}

// HandleListPast handles GET /v1/contests/past.
func (h *ContestHandler) HandleListPast(w http.ResponseWriter, r *http.Request) {
	h.handleStatusListing(w, r, types.StatusPast, cache.KeyPast)
}

func (h *ContestHandler) handleStatusListing(w http.ResponseWriter, r *http.Request, status types.ContestStatus, keyFn func(page, limit int) string) {
	page, limit, err := parsePagination(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	key := keyFn(page, limit)
	if h.cache != nil {
		var cached types.ContestPage
		if h.cache.Get(r.Context(), key, &cached) {
			core.JSON(w, r, http.StatusOK, core.APIResponse{Data: cached})
			return
		}
	}

	result, err := h.store.ListByStatus(r.Context(), status, page, limit)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if h.cache != nil {
		h.cache.Set(r.Context(), key, result, cache.ListingTTL)
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

// HandleListByPlatforms handles GET /v1/contests?platforms=Codeforces,LeetCode.
// An absent or empty platforms parameter means all platforms.
func (h *ContestHandler) HandleListByPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := parsePlatforms(r.URL.Query().Get("platforms"))
	if err != nil {
		core.Error(w, r, err)
		return
	}

	key := cache.KeyFilter(platforms)
	if h.cache != nil {
		var cached []types.Contest
		if h.cache.Get(r.Context(), key, &cached) {
			core.JSON(w, r, http.StatusOK, core.APIResponse{Data: cached})
			return
		}
	}

	contests, err := h.store.ListByPlatforms(r.Context(), platforms)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if h.cache != nil {
		h.cache.Set(r.Context(), key, contests, cache.ListingTTL)
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: contests})
}

// HandleGetByID handles GET /v1/contests/{contestID}. Single-contest reads
// are not cached; they are cheap primary-key lookups.
func (h *ContestHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	contest, err := h.store.GetByID(r.Context(), chi.URLParam(r, "contestID"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: contest})
}

// solutionLinkRequest is the body of PUT /v1/contests/{contestID}/solution-link.
type solutionLinkRequest struct {
	VideoURL string `json:"video_url"`
}

// HandleSetSolutionLink handles PUT /v1/contests/{contestID}/solution-link,
// the manual override for when the playlist matcher misses a contest.
func (h *ContestHandler) HandleSetSolutionLink(w http.ResponseWriter, r *http.Request) {
	var req solutionLinkRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"video_url is required",
			nil,
		))
		return
	}

	contest, err := h.store.SetSolutionLink(r.Context(), chi.URLParam(r, "contestID"), req.VideoURL)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if h.cache != nil {
		h.cache.InvalidateContestListings(r.Context())
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: contest})
}

// parsePagination extracts page and limit query parameters, applying defaults
// and bounds.
func parsePagination(r *http.Request) (page, limit int, err error) {
	page, limit = defaultPage, defaultLimit
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, types.NewAppError(
				types.ErrCodeValidationInvalidPage,
				"page must be a positive integer",
				nil,
			)
		}
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxPageLimit {
			return 0, 0, types.NewAppError(
				types.ErrCodeValidationInvalidLimit,
				"limit must be between 1 and 100",
				nil,
			)
		}
	}
	return page, limit, nil
}

// parsePlatforms parses the comma-separated platforms filter. Unknown
// platform names are rejected, not silently dropped.
func parsePlatforms(raw string) ([]types.Platform, error) {
	if strings.TrimSpace(raw) == "" {
		return types.AllPlatforms, nil
	}

	var platforms []types.Platform
	for _, part := range strings.Split(raw, ",") {
		p := types.Platform(strings.TrimSpace(part))
		if p == "" {
			continue
		}
		if !p.Valid() {
			return nil, types.NewAppError(
				types.ErrCodeValidationInvalidPlatform,
				"unknown platform: "+string(p),
				nil,
			)
		}
		platforms = append(platforms, p)
	}
	if len(platforms) == 0 {
		return types.AllPlatforms, nil
	}
	return platforms, nil
}
