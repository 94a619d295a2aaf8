package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"graded/internal/broker"
	"graded/pkg/types"
)

// stubGrader returns canned results per call, in order.
type stubGrader struct {
	calls   atomic.Int64
	results []types.GradingResult
	errs    []error
}

func (g *stubGrader) Grade(_ context.Context, _ types.GradingRequest) (types.GradingResult, error) {
	i := int(g.calls.Add(1)) - 1
	var res types.GradingResult
	var err error
	if i < len(g.results) {
		res = g.results[i]
	}
	if i < len(g.errs) {
		err = g.errs[i]
	}
	return res, err
}

// stubChecker returns tiers per check, in order; the last one repeats.
type stubChecker struct {
	calls atomic.Int64
	tiers []types.CapabilityTier
}

func (c *stubChecker) Check() types.CapabilityAssessment {
	i := int(c.calls.Add(1)) - 1
	if i >= len(c.tiers) {
		i = len(c.tiers) - 1
	}
	return types.CapabilityAssessment{Tier: c.tiers[i], Diagnosis: string(c.tiers[i])}
}

func score(n int) *int { return &n }

func item(text string) types.GradingRequest {
	return types.GradingRequest{QuestionText: "q", MarkingGuide: "g", MaxScore: 10, StudentText: text}
}

func newTestOrchestrator(g Grader, c CapabilityChecker) *Orchestrator {
	return New(g, c, zerolog.Nop())
}

func TestGradeBatchCompletesInOrder(t *testing.T) {
	g := &stubGrader{results: []types.GradingResult{
		{Score: score(3), Feedback: "a"},
		{Score: score(5), Feedback: "b"},
	}}
	c := &stubChecker{tiers: []types.CapabilityTier{types.TierCapable}}
	o := newTestOrchestrator(g, c)

	progress := make(chan types.BatchProgress, 4)
	report := o.GradeBatch(context.Background(), []types.GradingRequest{item("x"), item("y")}, progress)
	close(progress)

	if report.Status != types.BatchCompleted {
		t.Fatalf("expected completed, got %s", report.Status)
	}
	if len(report.Results) != 2 || *report.Results[0].Score != 3 || *report.Results[1].Score != 5 {
		t.Fatalf("results out of order: %+v", report.Results)
	}
	var seen []types.BatchProgress
	for p := range progress {
		seen = append(seen, p)
	}
	if len(seen) != 2 || seen[0].Index != 0 || seen[1].Index != 1 {
		t.Fatalf("unexpected progress: %+v", seen)
	}
	if seen[0].Remaining != 1 || seen[1].Remaining != 0 {
		t.Fatalf("remaining counts wrong: %+v", seen)
	}
}

func TestGradeBatchAbortsOnUnsupportedPreflight(t *testing.T) {
	g := &stubGrader{}
	c := &stubChecker{tiers: []types.CapabilityTier{types.TierUnsupported}}
	o := newTestOrchestrator(g, c)

	report := o.GradeBatch(context.Background(), []types.GradingRequest{item("x"), item("y")}, nil)
	if report.Status != types.BatchAborted {
		t.Fatalf("expected aborted, got %s", report.Status)
	}
	if len(report.Results) != 0 || g.calls.Load() != 0 {
		t.Fatalf("no item may be processed on abort")
	}
}

func TestGradeBatchPausesMidRun(t *testing.T) {
	g := &stubGrader{results: []types.GradingResult{{Score: score(4), Feedback: "a"}}}
	// Pre-flight capable, item 1 runs, re-check before item 2 trips.
	c := &stubChecker{tiers: []types.CapabilityTier{types.TierCapable, types.TierUnsupported}}
	o := newTestOrchestrator(g, c)

	report := o.GradeBatch(context.Background(), []types.GradingRequest{item("a"), item("b"), item("c")}, nil)
	if report.Status != types.BatchPaused {
		t.Fatalf("expected paused, got %s", report.Status)
	}
	if len(report.Results) != 1 || *report.Results[0].Score != 4 {
		t.Fatalf("completed item must keep its result: %+v", report.Results)
	}
	if report.Remaining != 2 {
		t.Fatalf("expected 2 unprocessed, got %d", report.Remaining)
	}
	if g.calls.Load() != 1 {
		t.Fatalf("items 2 and 3 must not be attempted, broker calls=%d", g.calls.Load())
	}
}

func TestGradeBatchBlankShortCircuit(t *testing.T) {
	g := &stubGrader{}
	c := &stubChecker{tiers: []types.CapabilityTier{types.TierCapable}}
	o := newTestOrchestrator(g, c)

	blank := types.GradingRequest{QuestionText: "q", MarkingGuide: "g", MaxScore: 10}
	report := o.GradeBatch(context.Background(), []types.GradingRequest{blank}, nil)
	if g.calls.Load() != 0 {
		t.Fatalf("blank answer must not invoke the broker")
	}
	if len(report.Results) != 1 || report.Results[0].Score == nil || *report.Results[0].Score != 0 {
		t.Fatalf("expected zero score, got %+v", report.Results)
	}
	if report.Results[0].Feedback != BlankAnswerFeedback {
		t.Fatalf("expected fixed feedback, got %q", report.Results[0].Feedback)
	}
}

func TestGradeBatchPerItemFailureDoesNotHalt(t *testing.T) {
	g := &stubGrader{
		results: []types.GradingResult{{}, {Score: score(6), Feedback: "fine"}},
		errs:    []error{errors.New("engine exploded"), nil},
	}
	c := &stubChecker{tiers: []types.CapabilityTier{types.TierCapable}}
	o := newTestOrchestrator(g, c)

	report := o.GradeBatch(context.Background(), []types.GradingRequest{item("a"), item("b")}, nil)
	if report.Status != types.BatchCompleted {
		t.Fatalf("expected completed, got %s", report.Status)
	}
	if report.Results[0].Score != nil {
		t.Fatalf("failed item must have absent score")
	}
	if !strings.Contains(report.Results[0].Feedback, "engine exploded") {
		t.Fatalf("feedback must embed the error: %q", report.Results[0].Feedback)
	}
	if report.Results[1].Score == nil || *report.Results[1].Score != 6 {
		t.Fatalf("second item must still be graded: %+v", report.Results[1])
	}
}

func TestGradeBatchParseFailureKeepsDiagnostic(t *testing.T) {
	raw := "I will not emit JSON today."
	g := &stubGrader{errs: []error{broker.ErrParseFailure("could not parse model output: " + raw)}}
	c := &stubChecker{tiers: []types.CapabilityTier{types.TierCapable}}
	o := newTestOrchestrator(g, c)

	report := o.GradeBatch(context.Background(), []types.GradingRequest{item("a")}, nil)
	if report.Status != types.BatchCompleted {
		t.Fatalf("parse failure must not halt the batch, got %s", report.Status)
	}
	if report.Results[0].Score != nil {
		t.Fatalf("expected absent score, got %d", *report.Results[0].Score)
	}
	if !strings.Contains(report.Results[0].Feedback, raw) {
		t.Fatalf("raw model text must survive into feedback: %q", report.Results[0].Feedback)
	}
	if strings.Contains(report.Results[0].Feedback, "grading failed") {
		t.Fatalf("parse failures are diagnostics, not grading errors: %q", report.Results[0].Feedback)
	}
}

func TestGradeBatchClampsScore(t *testing.T) {
	g := &stubGrader{results: []types.GradingResult{{Score: score(999), Feedback: "wild"}}}
	c := &stubChecker{tiers: []types.CapabilityTier{types.TierCapable}}
	o := newTestOrchestrator(g, c)

	report := o.GradeBatch(context.Background(), []types.GradingRequest{item("a")}, nil)
	if *report.Results[0].Score != 10 {
		t.Fatalf("expected clamp to 10, got %d", *report.Results[0].Score)
	}
}

func TestGradeBatchClampsNegativeScore(t *testing.T) {
	g := &stubGrader{results: []types.GradingResult{{Score: score(-3), Feedback: "harsh"}}}
	c := &stubChecker{tiers: []types.CapabilityTier{types.TierCapable}}
	o := newTestOrchestrator(g, c)

	report := o.GradeBatch(context.Background(), []types.GradingRequest{item("a")}, nil)
	if *report.Results[0].Score != 0 {
		t.Fatalf("expected clamp to 0, got %d", *report.Results[0].Score)
	}
}

func TestGradeBatchCancellationBetweenItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := &stubGrader{}
	c := &stubChecker{tiers: []types.CapabilityTier{types.TierCapable}}
	o := newTestOrchestrator(g, c)

	report := o.GradeBatch(ctx, []types.GradingRequest{item("a"), item("b")}, nil)
	if report.Status != types.BatchCancelled {
		t.Fatalf("expected cancelled, got %s", report.Status)
	}
	if g.calls.Load() != 0 {
		t.Fatalf("no item may start after cancellation")
	}
}

func TestGradeBatchLimitedTierStillRuns(t *testing.T) {
	g := &stubGrader{results: []types.GradingResult{{Score: score(2), Feedback: "ok"}}}
	c := &stubChecker{tiers: []types.CapabilityTier{types.TierLimited}}
	o := newTestOrchestrator(g, c)

	report := o.GradeBatch(context.Background(), []types.GradingRequest{item("a")}, nil)
	if report.Status != types.BatchCompleted || len(report.Results) != 1 {
		t.Fatalf("limited tier must still process items: %+v", report)
	}
}
