package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/forcegraph/pkg/buildinfo"
	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/generate"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
	"github.com/matzehuels/forcegraph/pkg/render/nodelink"
	"github.com/matzehuels/forcegraph/pkg/store"
)

// layoutResponse is a stored run plus how it was produced. Text artifacts
// other than JSON are inlined when the request asked for them.
type layoutResponse struct {
	*store.Run
	Cache     pipeline.CacheInfo `json:"cache"`
	Artifacts map[string]string  `json:"artifacts,omitempty"`
}

type listResponse struct {
	Runs   []*store.Run `json:"runs"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

type healthResponse struct {
	Status string `json:"status"`
	buildinfo.Info
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", Info: buildinfo.Get()})
}

func (s *Server) listGenerators(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]string{"generators": generate.Names()})
}

func (s *Server) createLayout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	var opts pipeline.Options
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body: %v", err))
		return
	}

	switch limit := MaxLayoutTimeout.Seconds(); {
	case opts.TimeoutSeconds == 0:
		opts.TimeoutSeconds = DefaultLayoutTimeout.Seconds()
	case opts.TimeoutSeconds > limit:
		opts.TimeoutSeconds = limit
	}
	opts.Logger = s.logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	run := store.NewRun(opts, res)
	if err := s.store.Save(r.Context(), run); err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := layoutResponse{Run: run, Cache: res.CacheInfo}
	for format, data := range res.Artifacts {
		if format == pipeline.FormatJSON {
			continue
		}
		if resp.Artifacts == nil {
			resp.Artifacts = make(map[string]string)
		}
		resp.Artifacts[format] = string(data)
	}

	w.Header().Set("Location", "/v1/layouts/"+run.ID)
	respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) listLayouts(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	runs, err := s.store.List(r.Context(), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	limit := opts.Limit
	if limit == 0 {
		limit = store.DefaultListLimit
	}
	respondJSON(w, http.StatusOK, listResponse{Runs: runs, Limit: limit, Offset: opts.Offset})
}

func (s *Server) getLayout(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, run)
}

func (s *Server) deleteLayout(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getLayoutSVG renders a stored run. The projection query parameter
// overrides the one the run was created with.
func (s *Server) getLayoutSVG(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	opts := run.Options()
	opts.Formats = []string{pipeline.FormatSVG}
	opts.Logger = s.logger
	if p := r.URL.Query().Get("projection"); p != "" {
		opts.Projection = nodelink.Projection(p)
	}
	opts.Detailed = r.URL.Query().Get("detailed") == "true"
	if err := opts.ValidateForRender(); err != nil {
		s.respondError(w, r, err)
		return
	}

	artifacts, err := s.runner.Render(r.Context(), run.Graph, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[pipeline.FormatSVG])
}

func parseListOptions(r *http.Request) (store.ListOptions, error) {
	var opts store.ListOptions
	q := r.URL.Query()
	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "%s must be a non-negative integer, got %q", name, raw)
		}
		*dst = n
	}
	return opts, nil
}

