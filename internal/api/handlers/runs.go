// Package handlers implements the results API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/luheng/fupan/internal/contracts"
	"github.com/luheng/fupan/internal/scan"
	"github.com/luheng/fupan/internal/store"
	"github.com/luheng/fupan/internal/strategy"
	"github.com/luheng/fupan/pkg/logger"
)

// RunsHandler serves run history and triggers on-demand scans.
type RunsHandler struct {
	scanner *scan.Scanner
	history *store.History
	logger  *logger.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(scanner *scan.Scanner, history *store.History, log *logger.Logger) *RunsHandler {
	return &RunsHandler{
		scanner: scanner,
		history: history,
		logger:  log,
	}
}

// ListRuns returns recent runs, newest first.
// GET /api/runs?limit=20
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = n
	}

	runs, err := h.history.RecentRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if runs == nil {
		runs = []store.RunRecord{}
	}

	respondJSON(w, http.StatusOK, runs)
}

// GetRunVerdicts returns the verdicts saved for one run.
// GET /api/runs/{id}/verdicts
func (h *RunsHandler) GetRunVerdicts(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	run, err := h.history.GetRun(r.Context(), runID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load run")
		respondError(w, http.StatusInternalServerError, "Failed to load run")
		return
	}
	if run == nil {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}

	verdicts, err := h.history.RunVerdicts(r.Context(), runID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load verdicts")
		respondError(w, http.StatusInternalServerError, "Failed to load verdicts")
		return
	}
	if verdicts == nil {
		verdicts = []contracts.Verdict{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run":      run,
		"verdicts": verdicts,
	})
}

// ScanRequest selects the profile an on-demand scan runs.
type ScanRequest struct {
	Profile string `json:"profile"`
}

// TriggerScan runs one scan synchronously and returns its result set.
// POST /api/scan
func (h *RunsHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Profile == "" {
		req.Profile = "dragonback"
	}

	p, err := strategy.ByName(req.Profile)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.WithField("profile", p.Name).Info("Scan triggered via API")

	rs, err := h.scanner.Run(r.Context(), p)
	if err != nil {
		h.logger.WithError(err).Error("Scan failed")
		respondError(w, http.StatusInternalServerError, "Scan failed")
		return
	}

	respondJSON(w, http.StatusOK, rs)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
