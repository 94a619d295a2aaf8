package types

// GradingRequest carries one question/answer pair to be scored.
// It is a pure value owned by the caller; the broker never retains it.
type GradingRequest struct {
	// Question text shown to the student.
	// example: Explain why the sky appears blue.
	QuestionText string `json:"question_text" example:"Explain why the sky appears blue."`
	// Marking guide the model should score against.
	// example: Award marks for mentioning Rayleigh scattering.
	MarkingGuide string `json:"marking_guide" example:"Award marks for mentioning Rayleigh scattering."`
	// Maximum achievable score; must be positive.
	// example: 10
	MaxScore int `json:"max_score" example:"10"`
	// The student's typed answer, if any.
	// example: Because sunlight scatters off air molecules.
	StudentText string `json:"student_text,omitempty" example:"Because sunlight scatters off air molecules."`
	// Decoded image bytes of a handwritten/photographed answer, if any.
	StudentImage []byte `json:"student_image,omitempty" swaggertype:"string" format:"byte"`
}

// Blank reports whether the request carries no student content at all.
// Blank requests are graded as zero without touching the inference engine.
func (r GradingRequest) Blank() bool {
	return r.StudentText == "" && len(r.StudentImage) == 0
}

// HasImage reports whether an image answer is attached.
func (r GradingRequest) HasImage() bool { return len(r.StudentImage) > 0 }

// GradingResult is the outcome for one request. Score is nil when the model
// output could not be turned into a usable score; Feedback then carries a
// diagnostic that embeds the raw model text.
type GradingResult struct {
	// Awarded score, clamped into [0, MaxScore] by the orchestrator.
	// example: 7
	Score *int `json:"score" example:"7"`
	// Short feedback for the student, or a diagnostic on failure.
	// example: Good explanation, mention wavelength dependence next time.
	Feedback string `json:"feedback" example:"Good explanation, mention wavelength dependence next time."`
}

// Usable reports whether the result carries both a score and feedback.
func (g GradingResult) Usable() bool { return g.Score != nil && g.Feedback != "" }

// CapabilityTier classifies how conservatively inference may proceed.
type CapabilityTier string

const (
	// TierUnsupported forbids any inference attempt.
	TierUnsupported CapabilityTier = "unsupported"
	// TierLimited permits one request at a time with no headroom to spare.
	TierLimited CapabilityTier = "limited"
	// TierCapable signals comfortable memory and thermal headroom.
	TierCapable CapabilityTier = "capable"
)

// CapabilityAssessment is one sample of device health, with the numbers that
// produced the tier so callers can render live diagnostics.
type CapabilityAssessment struct {
	// Tier summarizing whether inference may proceed.
	// example: capable
	Tier CapabilityTier `json:"tier" example:"capable"`
	// Currently available physical memory in MB.
	// example: 5120
	AvailableMemoryMB uint64 `json:"available_memory_mb" example:"5120"`
	// Thermal headroom forecast, 0.0-1.0; higher means closer to throttling.
	// Nil when the platform exposes no thermal signal.
	// example: 0.35
	ThermalHeadroom *float64 `json:"thermal_headroom,omitempty" example:"0.35"`
	// Human-readable explanation of the tier.
	// example: comfortable headroom
	Diagnosis string `json:"diagnosis" example:"comfortable headroom"`
}

// EngineState is the broker's lifecycle state, broadcast to observers.
type EngineState string

const (
	EngineReady           EngineState = "ready"
	EngineLoadingResource EngineState = "loading_resource"
	EngineBusy            EngineState = "busy"
	EngineFailed          EngineState = "failed"
)

// EngineStatus pairs the state with the failure cause when state is failed.
// Failed is transient: the next Grade call starts from Ready again.
type EngineStatus struct {
	// Current state of the inference engine slot.
	// example: ready
	State EngineState `json:"state" example:"ready"`
	// Cause of the last failure; set only while State is failed.
	Cause string `json:"cause,omitempty"`
}

// BatchStatus is the terminal disposition of a GradeBatch run.
type BatchStatus string

const (
	// BatchCompleted means every item was processed.
	BatchCompleted BatchStatus = "completed"
	// BatchPaused means the device became unsupported mid-run; completed
	// items keep their results, the rest were not attempted.
	BatchPaused BatchStatus = "paused"
	// BatchAborted means the pre-flight capability check failed and no
	// item was processed.
	BatchAborted BatchStatus = "aborted"
	// BatchCancelled means the caller cancelled between items.
	BatchCancelled BatchStatus = "cancelled"
)

// BatchProgress is emitted after each processed item, in input order.
type BatchProgress struct {
	// Zero-based index of the item that just finished.
	// example: 0
	Index int `json:"index" example:"0"`
	// Number of items processed so far, this one included.
	// example: 1
	Completed int `json:"completed" example:"1"`
	// Number of items still to process.
	// example: 2
	Remaining int `json:"remaining" example:"2"`
	// Result for the item at Index.
	Result GradingResult `json:"result"`
}

// BatchReport summarizes a finished (or stopped) batch.
type BatchReport struct {
	// Terminal status of the batch.
	// example: completed
	Status BatchStatus `json:"status" example:"completed"`
	// Results for processed items, in input order. Shorter than the input
	// when the batch paused or was cancelled.
	Results []GradingResult `json:"results"`
	// Number of items processed.
	// example: 3
	Completed int `json:"completed" example:"3"`
	// Number of items left unprocessed.
	// example: 0
	Remaining int `json:"remaining" example:"0"`
	// Diagnosis from the capability check that paused/aborted the batch.
	Reason string `json:"reason,omitempty"`
}
