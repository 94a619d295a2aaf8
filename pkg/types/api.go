package types

// GradeRequest is the payload for POST /grade.
type GradeRequest struct {
	// Item to grade.
	Item GradingRequest `json:"item"`
}

// GradeResponse wraps the result returned by POST /grade.
type GradeResponse struct {
	// Grading outcome for the submitted item.
	Result GradingResult `json:"result"`
}

// BatchGradeRequest is the payload for POST /grade/batch.
type BatchGradeRequest struct {
	// Items to grade, processed strictly in order.
	Items []GradingRequest `json:"items"`
}

// BatchProgressLine is one NDJSON line streamed from POST /grade/batch.
// Exactly one of Progress/Report is set; Report arrives last.
type BatchProgressLine struct {
	// Per-item progress update.
	Progress *BatchProgress `json:"progress,omitempty"`
	// Final batch report, sent as the last line.
	Report *BatchReport `json:"report,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Current engine slot status.
	Engine EngineStatus `json:"engine"`
	// Latest device capability sample.
	Capability CapabilityAssessment `json:"capability"`
	// Configured model artifact path ("" when unset).
	// example: /data/models/gemma-3n-e2b.gguf
	ModelPath string `json:"model_path" example:"/data/models/gemma-3n-e2b.gguf"`
	// Total grade calls served since start.
	// example: 42
	GradesTotal uint64 `json:"grades_total" example:"42"`
	// Grade calls that returned an error.
	// example: 3
	GradeFailuresTotal uint64 `json:"grade_failures_total" example:"3"`
	// Native engines constructed since start.
	// example: 42
	EnginesBuilt uint64 `json:"engines_built" example:"42"`
	// Native engines destroyed since start. Matches EnginesBuilt whenever no
	// grade is in flight.
	// example: 42
	EnginesDestroyed uint64 `json:"engines_destroyed" example:"42"`
	// Uptime of the daemon in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
