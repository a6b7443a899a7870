package main

// RunSummaryDTO is one row of GET /api/runs.
type RunSummaryDTO struct {
	RunID           string  `json:"run_id"`
	SourceLabel     string  `json:"source_label"`
	CreatedAt       string  `json:"created_at"`
	MeanOffset      float64 `json:"mean_offset_seconds"`
	StdDev          float64 `json:"std_dev_seconds"`
	MatchCount      int     `json:"match_count"`
	MeanConfidence  float64 `json:"mean_confidence"`
	OutliersTrimmed int     `json:"outliers_trimmed"`
}

// OffsetMatchDTO is one paired video/audio detection.
type OffsetMatchDTO struct {
	FrameID          uint32  `json:"frame_id"`
	VideoTimeSeconds float64 `json:"video_time_seconds"`
	AudioTimeSeconds float64 `json:"audio_time_seconds"`
	OffsetSeconds    float64 `json:"offset_seconds"`
	Confidence       float64 `json:"confidence"`
}

// RunDetailDTO is the response for GET /api/runs/{id}.
type RunDetailDTO struct {
	RunSummaryDTO
	PerMatch []OffsetMatchDTO `json:"matches"`
}

// AnalyzeResponse is the response for POST /api/analyze.
type AnalyzeResponse struct {
	MeanOffset      float64 `json:"mean_offset_seconds"`
	StdDev          float64 `json:"std_dev_seconds"`
	MinOffset       float64 `json:"min_offset_seconds"`
	MaxOffset       float64 `json:"max_offset_seconds"`
	MatchCount      int     `json:"match_count"`
	MeanConfidence  float64 `json:"mean_confidence"`
	OutliersTrimmed int     `json:"outliers_trimmed"`
}

// ListRunsResponse is the response for GET /api/runs.
type ListRunsResponse struct {
	Runs  []RunSummaryDTO `json:"runs"`
	Count int             `json:"count"`
}

// MetricsResponse reports server health and run-store metrics.
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path"`
	RunCount     int    `json:"run_count"`
	SampleRate   int    `json:"sample_rate"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
