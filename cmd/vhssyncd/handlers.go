package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/vhs-sync/timecode/pkg/logger"
	"github.com/vhs-sync/timecode/pkg/vhssync"
)

// Server encapsulates the HTTP server and its dependencies.
type Server struct {
	service vhssync.Service
	config  *ServerConfig
	log     vhssync.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	SampleRate     int
	AllowedOrigins []string
}

// NewServer creates a new server instance.
func NewServer(service vhssync.Service, config *ServerConfig) *Server {
	return &Server{service: service, config: config, log: logger.GetLogger()}
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "vhssync API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":  "GET /health",
			"metrics": "GET /api/health/metrics",
			"runs":    "GET /api/runs",
			"getRun":  "GET /api/runs/{id}",
			"analyze": "POST /api/analyze",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context())
	if err != nil {
		s.log.Errorf("Failed to get run count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}
	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		RunCount:     len(runs),
		SampleRate:   s.config.SampleRate,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context())
	if err != nil {
		s.log.Errorf("Failed to list runs: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	dtos := make([]RunSummaryDTO, len(runs))
	for i, run := range runs {
		dtos[i] = runSummaryToDTO(run)
	}
	s.respondJSON(w, http.StatusOK, ListRunsResponse{Runs: dtos, Count: len(dtos)})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request, runID string) {
	run, err := s.service.GetRun(r.Context(), runID)
	if err != nil {
		s.log.Warnf("Run not found: %s", runID)
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Run %s not found", runID))
		return
	}

	matches := make([]OffsetMatchDTO, len(run.Report.PerMatch))
	for i, m := range run.Report.PerMatch {
		matches[i] = OffsetMatchDTO{
			FrameID:          m.FrameID,
			VideoTimeSeconds: m.VideoTimeSeconds,
			AudioTimeSeconds: m.AudioTimeSeconds,
			OffsetSeconds:    m.OffsetSeconds,
			Confidence:       m.Confidence,
		}
	}

	s.respondJSON(w, http.StatusOK, RunDetailDTO{
		RunSummaryDTO: runSummaryToDTO(run.RunSummary),
		PerMatch:      matches,
	})
}

// handleAnalyze handles POST /api/analyze (multipart capture-file upload).
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	if err := r.ParseMultipartForm(500 << 20); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("capture")
	if err != nil {
		s.log.Errorf("Failed to get capture file: %v", err)
		s.respondError(w, http.StatusBadRequest, "capture file is required")
		return
	}
	defer file.Close()

	tempFile := filepath.Join(s.config.TempDir, fmt.Sprintf("upload_%d_%s", time.Now().UnixNano(), header.Filename))
	out, err := os.Create(tempFile)
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	defer os.Remove(tempFile)

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		s.log.Errorf("Failed to save file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	out.Close()

	s.log.Infof("Analyzing uploaded capture: %s", header.Filename)
	report, err := s.service.AnalyzeFile(ctx, tempFile)
	if err != nil {
		s.log.Errorf("Failed to analyze capture: %v", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to analyze capture: %v", err))
		return
	}

	s.log.Infof("Analysis complete: %d matches", report.MatchCount)
	s.respondJSON(w, http.StatusOK, AnalyzeResponse{
		MeanOffset:      report.MeanOffset,
		StdDev:          report.StdDev,
		MinOffset:       report.MinOffset,
		MaxOffset:       report.MaxOffset,
		MatchCount:      report.MatchCount,
		MeanConfidence:  report.MeanConfidence,
		OutliersTrimmed: report.OutliersTrimmed,
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListRuns(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Path[len("/api/runs/"):]
	if idStr == "" {
		s.respondError(w, http.StatusBadRequest, "Run ID required")
		return
	}
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleGetRun(w, r, idStr)
}

func (s *Server) handleAnalyzeRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleAnalyze(w, r)
}

func runSummaryToDTO(r vhssync.RunSummary) RunSummaryDTO {
	return RunSummaryDTO{
		RunID:           r.RunID,
		SourceLabel:     r.SourceLabel,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		MeanOffset:      r.MeanOffset,
		StdDev:          r.StdDev,
		MatchCount:      r.MatchCount,
		MeanConfidence:  r.MeanConfidence,
		OutliersTrimmed: r.OutliersTrimmed,
	}
}
