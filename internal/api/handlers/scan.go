package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/internal/scanner"
	"github.com/nicholaslie90/stck-scanner/internal/window"
	"github.com/nicholaslie90/stck-scanner/pkg/logger"
)

// ScanRunner is the engine surface the handler needs
type ScanRunner interface {
	Run(ctx context.Context, opts scanner.RunOptions) (*scanner.RunResult, error)
	Latest() *scanner.RunResult
	Running() bool
}

// ScanHandler handles scan endpoints
// ⭐ SSOT: scan API handlers
type ScanHandler struct {
	engine ScanRunner
	loc    *time.Location
	logger *logger.Logger

	// background runs outlive the request
	baseCtx context.Context
}

// NewScanHandler creates a new scan handler
func NewScanHandler(ctx context.Context, engine ScanRunner, loc *time.Location, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		engine:  engine,
		loc:     loc,
		logger:  log,
		baseCtx: ctx,
	}
}

// ScanRequest represents a scan trigger request
type ScanRequest struct {
	Mode    string   `json:"mode"`    // morning, afternoon, auto (default)
	Date    string   `json:"date"`    // optional target date (YYYY-MM-DD)
	Tickers []string `json:"tickers"` // optional manual universe
	DryRun  bool     `json:"dry_run"` // render without notifying
}

// ScanResponse is returned when a scan is accepted
type ScanResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// GetLatest returns the last completed run
// GET /api/report/latest
func (h *ScanHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	latest := h.engine.Latest()
	if latest == nil {
		respondError(w, http.StatusNotFound, "No scan has completed yet")
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, latest.Message)
		return
	}

	respondJSON(w, http.StatusOK, latest)
}

// TriggerScan starts a scan in the background
// POST /api/scan
func (h *ScanHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	opts, err := h.parseRequest(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.engine.Running() {
		respondError(w, http.StatusConflict, scanner.ErrRunInProgress.Error())
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"mode":    req.Mode,
		"date":    req.Date,
		"tickers": len(opts.Tickers),
		"dry_run": opts.DryRun,
	}).Info("Scan triggered via API")

	go func() {
		if _, err := h.engine.Run(h.baseCtx, opts); err != nil {
			h.logger.WithError(err).Error("Triggered scan failed")
		}
	}()

	respondJSON(w, http.StatusAccepted, ScanResponse{
		Status:  "accepted",
		Message: "Scan started, poll GET /api/report/latest",
	})
}

func (h *ScanHandler) parseRequest(req ScanRequest) (scanner.RunOptions, error) {
	mode, _, err := contracts.ParseMode(req.Mode)
	if err != nil {
		return scanner.RunOptions{}, err
	}

	opts := scanner.RunOptions{
		Mode:   mode,
		DryRun: req.DryRun,
	}

	if strings.TrimSpace(req.Date) != "" {
		date, err := window.ParseDate(req.Date, h.loc)
		if err != nil {
			return scanner.RunOptions{}, errors.New("invalid 'date' format (expected YYYY-MM-DD)")
		}
		opts.Date = date
	}

	for _, t := range req.Tickers {
		if t = contracts.NormalizeTicker(t); t != "" {
			opts.Tickers = append(opts.Tickers, t)
		}
	}
	return opts, nil
}
