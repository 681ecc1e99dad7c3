package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/benchd/internal/model"
	"github.com/seantiz/benchd/internal/store"
)

const maxBodySize = 1 << 20 // 1 MB

// createEngineRequest is the JSON body for POST /v1/engines.
type createEngineRequest struct {
	Name     string `json:"name"`
	Addr     string `json:"addr"`
	TimeoutS *int   `json:"timeout_s"`
}

// listEnginesResponse wraps the engine list response.
type listEnginesResponse struct {
	Engines []*model.Engine `json:"engines"`
	Total   int             `json:"total"`
}

func (s *Server) handleCreateEngine(w http.ResponseWriter, r *http.Request) {
	var req createEngineRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Addr == "" {
		s.writeError(w, http.StatusBadRequest, "addr is required")
		return
	}

	timeoutS := int(s.callTimeout / time.Second)
	if req.TimeoutS != nil {
		if *req.TimeoutS < 0 {
			s.writeError(w, http.StatusBadRequest, "timeout_s must not be negative")
			return
		}
		timeoutS = *req.TimeoutS
	}

	e := &model.Engine{
		Name:      req.Name,
		Addr:      req.Addr,
		TimeoutS:  timeoutS,
		CreatedAt: time.Now().UTC(),
	}

	err := s.store.CreateEngine(r.Context(), e)
	if errors.Is(err, store.ErrExists) {
		s.writeError(w, http.StatusConflict, "engine name already registered")
		return
	}
	if err != nil {
		s.logger.Error("create engine", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to register engine")
		return
	}

	s.writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleListEngines(w http.ResponseWriter, r *http.Request) {
	engines, err := s.store.ListEngines(r.Context())
	if err != nil {
		s.logger.Error("list engines", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list engines")
		return
	}
	if engines == nil {
		engines = []*model.Engine{}
	}
	s.writeJSON(w, http.StatusOK, listEnginesResponse{Engines: engines, Total: len(engines)})
}

func (s *Server) handleGetEngine(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	e, err := s.store.GetEngine(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "engine not found")
		return
	}
	if err != nil {
		s.logger.Error("get engine", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve engine")
		return
	}

	s.writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEngine(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	err := s.store.DeleteEngine(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "engine not found")
		return
	}
	if err != nil {
		s.logger.Error("delete engine", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete engine")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
