package api

import (
	"net/http"

	"github.com/ayusman/silexa/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// RunLister lists training runs, newest first.
type RunLister interface {
	List(limit int) ([]*store.Run, error)
}

// AnnouncementLister lists announcements, newest first.
type AnnouncementLister interface {
	ListBySession(session string, limit int) ([]*store.Announcement, error)
	CountByLabel() (map[string]int, error)
}

// HistoryHandler serves the training run and announcement history.
type HistoryHandler struct {
	runs          RunLister
	announcements AnnouncementLister
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(runs RunLister, announcements AnnouncementLister) *HistoryHandler {
	return &HistoryHandler{runs: runs, announcements: announcements}
}

type runsResponse struct {
	Success bool         `json:"success"`
	Runs    []*store.Run `json:"runs"`
}

type announcementsResponse struct {
	Success       bool                  `json:"success"`
	Announcements []*store.Announcement `json:"announcements"`
	Counts        map[string]int        `json:"counts"`
}

// Runs handles GET /api/runs?limit=N.
func (h *HistoryHandler) Runs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	limit, err := queryLimit(r, defaultListLimit, maxListLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	runs, err := h.runs.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	writeJSON(w, http.StatusOK, runsResponse{Success: true, Runs: runs})
}

// Announcements handles GET /api/announcements?session=ID&limit=N.
// Counts are over the whole history, not only the returned page.
func (h *HistoryHandler) Announcements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	limit, err := queryLimit(r, defaultListLimit, maxListLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	list, err := h.announcements.ListBySession(r.URL.Query().Get("session"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}
	counts, err := h.announcements.CountByLabel()
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}
	if list == nil {
		list = []*store.Announcement{}
	}
	writeJSON(w, http.StatusOK, announcementsResponse{Success: true, Announcements: list, Counts: counts})
}
