// Package orchestrator drives multi-item grading runs. It owns batch-level
// policy: per-item capability gating, blank-answer short-circuit, per-item
// failure isolation, score clamping, and pause semantics.
package orchestrator

import (
	"context"

	"github.com/rs/zerolog"

	"graded/internal/broker"
	"graded/pkg/types"
)

// BlankAnswerFeedback is the fixed feedback for answers with no content.
const BlankAnswerFeedback = "No answer provided."

// Grader is the single-item grading dependency (the broker in production).
type Grader interface {
	Grade(ctx context.Context, req types.GradingRequest) (types.GradingResult, error)
}

// CapabilityChecker is the device-health gate consulted before each item.
type CapabilityChecker interface {
	Check() types.CapabilityAssessment
}

// Orchestrator iterates a batch of grading requests in order, re-checking
// device capability between items. One item's failure never prevents
// grading the rest of the batch.
type Orchestrator struct {
	grader  Grader
	checker CapabilityChecker
	log     zerolog.Logger
}

// New constructs an Orchestrator.
func New(grader Grader, checker CapabilityChecker, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{grader: grader, checker: checker, log: log}
}

// GradeBatch processes items strictly in order. Progress is emitted after
// each processed item on the progress channel when one is provided; the
// channel is never closed by GradeBatch (the caller owns it).
//
// The whole batch aborts only when the pre-flight check is Unsupported.
// Mid-batch Unsupported pauses: completed items keep their results and the
// rest are left unprocessed. Cancellation is observed at item boundaries
// only, since a generation in flight cannot be interrupted.
func (o *Orchestrator) GradeBatch(ctx context.Context, items []types.GradingRequest, progress chan<- types.BatchProgress) types.BatchReport {
	report := types.BatchReport{
		Status:    types.BatchCompleted,
		Results:   make([]types.GradingResult, 0, len(items)),
		Remaining: len(items),
	}

	if pre := o.checker.Check(); pre.Tier == types.TierUnsupported {
		o.log.Warn().Str("diagnosis", pre.Diagnosis).Msg("batch aborted by pre-flight capability check")
		report.Status = types.BatchAborted
		report.Reason = pre.Diagnosis
		return report
	}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			report.Status = types.BatchCancelled
			report.Reason = err.Error()
			return report
		}
		if i > 0 {
			if cur := o.checker.Check(); cur.Tier == types.TierUnsupported {
				o.log.Warn().Int("index", i).Str("diagnosis", cur.Diagnosis).Msg("batch paused by capability check")
				report.Status = types.BatchPaused
				report.Reason = cur.Diagnosis
				return report
			}
		}

		res := o.gradeItem(ctx, item)
		report.Results = append(report.Results, res)
		report.Completed++
		report.Remaining--

		if progress != nil {
			progress <- types.BatchProgress{
				Index:     i,
				Completed: report.Completed,
				Remaining: report.Remaining,
				Result:    res,
			}
		}
	}
	return report
}

// gradeItem grades one item, converting every error into a per-item result.
func (o *Orchestrator) gradeItem(ctx context.Context, item types.GradingRequest) types.GradingResult {
	if item.Blank() {
		// Blank answers must never consume the engine.
		zero := 0
		return types.GradingResult{Score: &zero, Feedback: BlankAnswerFeedback}
	}
	res, err := o.grader.Grade(ctx, item)
	if err != nil {
		o.log.Error().Err(err).Msg("item grading failed")
		if broker.IsParseFailure(err) {
			// The diagnostic already embeds the raw model text.
			return types.GradingResult{Score: nil, Feedback: err.Error()}
		}
		return types.GradingResult{Score: nil, Feedback: "grading failed: " + err.Error()}
	}
	if res.Score != nil {
		clamped := clamp(*res.Score, 0, item.MaxScore)
		res.Score = &clamped
	}
	return res
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
