// HTTP handlers for the import API: submitting and previewing runs,
// source detection, progress snapshots, cancellation and history.

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ameyrk/gutengo/internal/models"
)

// importRequest is the body of import, preview and detect calls. The locator
// is either a source URL or pasted content; exactly one should be set.
type importRequest struct {
	RunID   string         `json:"run_id,omitempty"`
	Source  string         `json:"source,omitempty"`
	URL     string         `json:"url,omitempty"`
	Content string         `json:"content,omitempty"`
	Options models.Options `json:"options"`
}

// resolve validates the request and fills in a detected source when none was
// given. It returns the source slug and the locator.
func (s *Server) resolve(req *importRequest) (string, string, error) {
	locator := req.URL
	if locator == "" {
		locator = req.Content
	}
	if locator == "" {
		return "", "", errors.New("request needs a url or content")
	}

	source := req.Source
	if source == "" {
		detected, ok := s.app.Registry.Detect(locator)
		if !ok {
			return "", "", errors.New("could not detect a source for the given input")
		}
		source = detected
	}
	if _, ok := s.app.Registry.Get(source); !ok {
		return "", "", errors.New("unknown source: " + source)
	}
	return source, locator, nil
}

func (s *Server) handleSubmitImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	source, locator, err := s.resolve(&req)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	runID, err := s.app.Runner.Submit(req.RunID, source, locator, req.Options)
	if err != nil {
		// Submitting an already tracked run ID is the caller's mistake.
		RespondWithError(w, http.StatusConflict, err.Error())
		return
	}

	RespondWithJSON(w, http.StatusAccepted, map[string]string{
		"run_id": runID,
		"source": source,
	})
}

func (s *Server) handlePreviewImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	source, locator, err := s.resolve(&req)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	preview, err := s.app.Runner.Preview(r.Context(), source, locator)
	if err != nil {
		if errors.Is(err, models.ErrAuthRequired) {
			RespondWithError(w, http.StatusUnauthorized, err.Error())
			return
		}
		var fetchErr *models.FetchError
		if errors.As(err, &fetchErr) {
			RespondWithError(w, http.StatusBadGateway, fetchErr.Error())
			return
		}
		RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	RespondWithJSON(w, http.StatusOK, preview)
}

func (s *Server) handleDetectSource(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	locator := req.URL
	if locator == "" {
		locator = req.Content
	}
	if locator == "" {
		RespondWithError(w, http.StatusBadRequest, "request needs a url or content")
		return
	}

	source, ok := s.app.Registry.Detect(locator)
	if !ok {
		RespondWithError(w, http.StatusUnprocessableEntity, "no importer recognizes the given input")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"source": source})
}

func (s *Server) handleListImporters(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.app.Registry.All())
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	record, ok := s.app.Tracker.Get(runID)
	if !ok {
		RespondWithError(w, http.StatusNotFound, "Run not found")
		return
	}
	RespondWithJSON(w, http.StatusOK, record)
}

func (s *Server) handleCancelImport(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if _, ok := s.app.Tracker.Get(runID); !ok {
		RespondWithError(w, http.StatusNotFound, "Run not found")
		return
	}
	if !s.app.Tracker.Cancel(runID) {
		RespondWithError(w, http.StatusConflict, "Run is no longer cancellable")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.app.Store.ListImports(limit)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to list import history")
		return
	}
	RespondWithJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid history entry ID")
		return
	}
	deleted, err := s.app.Store.DeleteImport(entryID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to delete history entry")
		return
	}
	if !deleted {
		RespondWithError(w, http.StatusNotFound, "History entry not found")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"version": s.app.Version})
}
