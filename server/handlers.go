package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"songhouse/logger"
	"songhouse/model"
	"songhouse/notify"
	"songhouse/reprocess"
	"songhouse/search"
	"songhouse/track"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// APIHandler exposes the search, download and reprocess operations.
type APIHandler struct {
	searches  *search.Facade
	tracks    *track.Service
	reprocess *reprocess.Service
	scheduler *reprocess.Scheduler
	hub       *notify.Hub
	upgrader  websocket.Upgrader
}

func NewAPIHandler(searches *search.Facade, tracks *track.Service,
	reprocessService *reprocess.Service, scheduler *reprocess.Scheduler, hub *notify.Hub) *APIHandler {
	return &APIHandler{
		searches:  searches,
		tracks:    tracks,
		reprocess: reprocessService,
		scheduler: scheduler,
		hub:       hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type searchRequest struct {
	Query        string `json:"query"`
	FetchArtwork *bool  `json:"fetchArtwork,omitempty"`
	Filter       *bool  `json:"filterByArtistTitle,omitempty"`
	Fast         bool   `json:"fast,omitempty"`
}

// handleSearch runs an aggregated search and returns the ranked candidates.
func (h *APIHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	query := model.NewSearchQuery(req.Query)
	if req.FetchArtwork != nil {
		query.FetchArtwork = *req.FetchArtwork
	}
	if req.Filter != nil {
		query.FilterByArtistTitle = *req.Filter
	}

	var songs []model.TrackMetadata
	if req.Fast {
		songs = h.searches.SearchFast(r.Context(), query)
	} else {
		songs = h.searches.Search(r.Context(), query)
	}
	if songs == nil {
		songs = []model.TrackMetadata{}
	}
	writeJSON(w, http.StatusOK, songs)
}

type downloadRequest struct {
	Query        string   `json:"query"`
	CollectionID int64    `json:"collectionId"`
	Genres       []string `json:"genres,omitempty"`
}

// handleDownload tries to materialize a track for the query right away; on a
// miss it registers the query for background reprocessing and answers 202.
func (h *APIHandler) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	userID := userIDFrom(r)

	downloaded, err := h.tracks.SearchAndDownload(r.Context(), req.Query, req.CollectionID, req.Genres, userID)
	if err != nil {
		logger.Error("search and download failed",
			logger.Int64("userId", userID),
			logger.String("query", req.Query),
			logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "download failed")
		return
	}
	if downloaded != nil {
		writeJSON(w, http.StatusOK, downloaded)
		return
	}

	request, err := h.reprocess.CreateIfNotExists(r.Context(), req.Query, req.CollectionID, req.Genres, userID)
	if err != nil {
		logger.Error("failed to register search for reprocessing",
			logger.Int64("userId", userID),
			logger.String("query", req.Query),
			logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "could not register search for reprocessing")
		return
	}
	writeJSON(w, http.StatusAccepted, request)
}

// handleTracks lists the authenticated user's persisted tracks.
func (h *APIHandler) handleTracks(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	tracks, err := h.tracks.Tracks(r.Context(), userID)
	if err != nil {
		logger.Error("failed to list tracks",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	if tracks == nil {
		tracks = []model.Track{}
	}
	writeJSON(w, http.StatusOK, tracks)
}

type pageResponse struct {
	Items   []model.SearchReprocess `json:"items"`
	Page    int                     `json:"page"`
	HasNext bool                    `json:"hasNext"`
}

func (h *APIHandler) handlePending(w http.ResponseWriter, r *http.Request) {
	h.writePage(w, r, h.reprocess.AvailableForSearch)
}

func (h *APIHandler) handleFound(w http.ResponseWriter, r *http.Request) {
	h.writePage(w, r, h.reprocess.AvailableForDownload)
}

func (h *APIHandler) handleDownloaded(w http.ResponseWriter, r *http.Request) {
	h.writePage(w, r, h.reprocess.Downloaded)
}

func (h *APIHandler) writePage(w http.ResponseWriter, r *http.Request,
	load func(ctx context.Context, userID int64, page, size int) ([]model.SearchReprocess, bool, error)) {
	userID := userIDFrom(r)
	page := intParam(r, "page", 0)
	size := intParam(r, "size", 20)

	items, hasNext, err := load(r.Context(), userID, page, size)
	if err != nil {
		logger.Error("failed to page reprocess requests",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	if items == nil {
		items = []model.SearchReprocess{}
	}
	writeJSON(w, http.StatusOK, pageResponse{Items: items, Page: page, HasNext: hasNext})
}

type downloadIDsRequest struct {
	IDs []int64 `json:"ids"`
}

func (h *APIHandler) handleReprocessDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return
	}
	userID := userIDFrom(r)
	downloaded, err := h.reprocess.Download(r.Context(), userID, req.IDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "download failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"downloaded": downloaded})
}

func (h *APIHandler) handleReprocessDownloadAll(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	downloaded, err := h.reprocess.DownloadAll(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "download failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"downloaded": downloaded})
}

func (h *APIHandler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	requestID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}
	userID := userIDFrom(r)
	if err := h.reprocess.Discard(r.Context(), userID, requestID); err != nil {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReprocessRun triggers a sweep immediately.
func (h *APIHandler) handleReprocessRun(w http.ResponseWriter, r *http.Request) {
	started := h.scheduler.Trigger()
	writeJSON(w, http.StatusAccepted, map[string]bool{"started": started})
}

// handleNotify upgrades to a websocket and streams found events for the
// authenticated user until the peer goes away.
func (h *APIHandler) handleNotify(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		return
	}
	h.hub.Register(userID, conn)
	go func() {
		defer func() {
			h.hub.Unregister(userID, conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func intParam(r *http.Request, name string, fallback int) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			return v
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
