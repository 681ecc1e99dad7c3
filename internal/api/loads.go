package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/benchd/internal/engine"
	"github.com/seantiz/benchd/internal/loader"
	"github.com/seantiz/benchd/internal/model"
	"github.com/seantiz/benchd/internal/store"
)

// handleLoadConfiguration runs one configuration load against a registered
// engine and returns its LoadResult. The request blocks until the loading
// sequence finishes; per-call deadlines inside the sequence come from the
// engine's registered timeout unless the request overrides it.
func (s *Server) handleLoadConfiguration(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	eng, err := s.store.GetEngine(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "engine not found")
		return
	}
	if err != nil {
		s.logger.Error("get engine", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve engine")
		return
	}

	var cfg model.TestRunConfig
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	timeout := time.Duration(eng.TimeoutS) * time.Second
	if cfg.TimeoutS != nil {
		if *cfg.TimeoutS < 0 {
			s.writeError(w, http.StatusBadRequest, "timeout_s must not be negative")
			return
		}
		timeout = time.Duration(*cfg.TimeoutS) * time.Second
	}

	conn, err := s.dial(r.Context(), eng.Addr)
	if err != nil {
		s.logger.Error("dial engine", "engine", eng.Name, "addr", eng.Addr, "error", err)
		s.writeError(w, http.StatusBadGateway, "failed to connect to engine")
		return
	}
	defer conn.Close()

	client := engine.NewClient(conn.Root(), timeout)
	defer client.Close()

	logger := s.logger.With("engine", eng.Name)
	res := loader.New(client, logger).Load(r.Context(), cfg)

	s.writeJSON(w, http.StatusOK, res)
}
