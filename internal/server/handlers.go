package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	memexErrors "github.com/cadre-oss/memex/internal/errors"
	"github.com/cadre-oss/memex/internal/extract"
	"github.com/cadre-oss/memex/internal/memory"
	"github.com/cadre-oss/memex/internal/state"
)

// --- Helpers ---

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, map[string]string{"error": msg})
}

// errorResponse maps a coded error onto an HTTP status.
func errorResponse(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := memexErrors.AsCode(err)
	switch code {
	case memexErrors.CodeMemoryNotFound, memexErrors.CodeRunNotFound, memexErrors.CodeNoMemories:
		status = http.StatusNotFound
	case memexErrors.CodeValidation, memexErrors.CodeConfigInvalid:
		status = http.StatusBadRequest
	case memexErrors.CodeAccessDenied, memexErrors.CodeCredentialsMissing:
		status = http.StatusForbidden
	case memexErrors.CodeThrottled:
		status = http.StatusTooManyRequests
	case memexErrors.CodeServiceUnavailable:
		status = http.StatusServiceUnavailable
	case memexErrors.CodeTimeout:
		status = http.StatusGatewayTimeout
	case memexErrors.CodeServiceError:
		status = http.StatusBadGateway
	}

	body := map[string]string{"error": err.Error()}
	if code != "" {
		body["code"] = code
	}
	if s := memexErrors.Suggestion(err); s != "" {
		body["suggestion"] = s
	}
	jsonResponse(w, status, body)
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// intParam reads a non-negative integer query parameter, falling back to def
// when it is absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"region":      s.cfg.AWS.Region,
		"sse_clients": s.broker.ClientCount(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, s.metrics.GetSummary())
}

// --- Memories ---

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "max_results", s.cfg.Defaults.MaxMemories)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	memories, err := s.svc.ListMemories(r.Context(), limit)
	if err != nil {
		errorResponse(w, err)
		return
	}
	if memories == nil {
		memories = []memory.MemorySummary{}
	}
	jsonResponse(w, http.StatusOK, memories)
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	mem, err := s.svc.GetMemory(r.Context(), r.PathValue("id"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, mem)
}

func (s *Server) handleListActors(w http.ResponseWriter, r *http.Request) {
	actors, err := s.svc.ListActors(r.Context(), r.PathValue("id"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	if actors == nil {
		actors = []memory.Actor{}
	}
	jsonResponse(w, http.StatusOK, actors)
}

func (s *Server) handleNamespaces(w http.ResponseWriter, r *http.Request) {
	opts := extract.OptionsFromConfig(s.cfg)
	opts.MemoryID = r.PathValue("id")

	report, err := s.extractor().Plan(r.Context(), opts)
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"memory_id":                report.MemoryID,
		"templates":                report.Templates,
		"used_fallback_namespaces": report.UsedFallbackNamespaces,
		"actors_error":             report.ActorsError,
		"resolution":               report.Resolution,
	})
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	ns := r.URL.Query().Get("namespace")
	if ns == "" {
		jsonError(w, http.StatusBadRequest, "namespace is required")
		return
	}
	limit, err := intParam(r, "max_results", s.cfg.Defaults.MaxResults)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.svc.ListRecords(r.Context(), r.PathValue("id"), memory.ListQuery{
		NamespacePrefix: ns,
		StrategyID:      r.URL.Query().Get("strategy_id"),
		MaxResults:      limit,
	})
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, extract.NamespaceResult{
		Namespace: ns,
		Source:    extract.SourceList,
		Records:   nonNil(records),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("q") == "" || q.Get("namespace") == "" {
		jsonError(w, http.StatusBadRequest, "q and namespace are required")
		return
	}
	topK, err := intParam(r, "top_k", s.cfg.Defaults.TopK)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.svc.SearchRecords(r.Context(), r.PathValue("id"), memory.SearchQuery{
		Query:           q.Get("q"),
		NamespacePrefix: q.Get("namespace"),
		StrategyID:      q.Get("strategy_id"),
		TopK:            topK,
	})
	if err != nil {
		errorResponse(w, err)
		return
	}
	s.metrics.AddSearchHits(len(records))
	jsonResponse(w, http.StatusOK, extract.NamespaceResult{
		Namespace: q.Get("namespace"),
		Source:    extract.SourceSearch,
		Query:     q.Get("q"),
		Records:   nonNil(records),
	})
}

func nonNil(records []memory.Record) []memory.Record {
	if records == nil {
		return []memory.Record{}
	}
	return records
}

// --- Extraction ---

type extractRequest struct {
	MemoryID   string   `json:"memory_id"`
	Save       bool     `json:"save"`
	Search     *bool    `json:"search"`
	Namespaces []string `json:"namespaces"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var body extractRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}

	opts := extract.OptionsFromConfig(s.cfg)
	if body.MemoryID != "" {
		opts.MemoryID = body.MemoryID
	}
	if body.Search != nil {
		opts.Search = *body.Search
	}
	opts.ExtraNamespaces = append(append([]string(nil), opts.ExtraNamespaces...), body.Namespaces...)
	opts.Save = body.Save && s.stateMgr != nil

	s.extractMu.Lock()
	defer s.extractMu.Unlock()

	report, err := s.extractor().Run(r.Context(), opts)
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

// --- Runs ---

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.stateMgr == nil {
		jsonResponse(w, http.StatusOK, []*state.RunState{})
		return
	}
	limit, err := intParam(r, "limit", 50)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	runs, err := s.stateMgr.ListRuns(limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*state.RunState{}
	}
	jsonResponse(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.stateMgr == nil {
		jsonError(w, http.StatusNotFound, "run not found")
		return
	}
	run, err := s.stateMgr.GetRun(r.PathValue("id"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if s.stateMgr == nil {
		jsonError(w, http.StatusNotFound, "run not found")
		return
	}
	if err := s.stateMgr.DeleteRun(r.PathValue("id")); err != nil {
		errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Events ---

func (s *Server) handleSSEEvents(w http.ResponseWriter, r *http.Request) {
	s.serveSSE(w, r, "")
}

func (s *Server) handleSSEEventsFiltered(w http.ResponseWriter, r *http.Request) {
	s.serveSSE(w, r, r.PathValue("runID"))
}

func (s *Server) serveSSE(w http.ResponseWriter, r *http.Request, runID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	clientID := uuid.New().String()
	client := s.broker.Subscribe(r.Context(), clientID, runID)

	data, _ := json.Marshal(map[string]string{"type": "connected", "client_id": clientID})
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()

	for ev := range client.Events {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
}
