// Package service composes the capability monitor, inference broker, and
// grading orchestrator into the single surface the HTTP layer consumes.
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"graded/internal/broker"
	"graded/internal/capability"
	"graded/internal/orchestrator"
	"graded/pkg/types"
)

// Service wires the grading subsystem together.
type Service struct {
	broker    *broker.Broker
	monitor   *capability.Monitor
	orch      *orchestrator.Orchestrator
	modelPath string
	startTime time.Time
}

// New builds a Service around an already-constructed broker and monitor.
func New(b *broker.Broker, m *capability.Monitor, modelPath string, log zerolog.Logger) *Service {
	return &Service{
		broker:    b,
		monitor:   m,
		orch:      orchestrator.New(b, m, log),
		modelPath: modelPath,
		startTime: time.Now(),
	}
}

// Grade scores one item. Blank answers short-circuit to a zero-score result
// without touching the engine; scores are clamped into [0, MaxScore].
func (s *Service) Grade(ctx context.Context, req types.GradingRequest) (types.GradingResult, error) {
	if req.Blank() {
		zero := 0
		return types.GradingResult{Score: &zero, Feedback: orchestrator.BlankAnswerFeedback}, nil
	}
	res, err := s.broker.Grade(ctx, req)
	if err != nil {
		return types.GradingResult{}, err
	}
	if res.Score != nil {
		v := *res.Score
		if v < 0 {
			v = 0
		}
		if req.MaxScore > 0 && v > req.MaxScore {
			v = req.MaxScore
		}
		res.Score = &v
	}
	return res, nil
}

// GradeBatch runs the orchestrator over the items.
func (s *Service) GradeBatch(ctx context.Context, items []types.GradingRequest, progress chan<- types.BatchProgress) types.BatchReport {
	return s.orch.GradeBatch(ctx, items, progress)
}

// Capability samples the device health gate.
func (s *Service) Capability() types.CapabilityAssessment {
	return s.monitor.Check()
}

// Engine returns the broker's current slot status.
func (s *Service) Engine() types.EngineStatus {
	return s.broker.Status()
}

// Ready reports whether the engine slot is not in a failed state.
func (s *Service) Ready() bool {
	return s.broker.Status().State != types.EngineFailed
}

// Status builds the detailed response for GET /status.
func (s *Service) Status() types.StatusResponse {
	grades, failures := s.broker.Totals()
	built, destroyed := s.broker.Counters()
	now := time.Now()
	return types.StatusResponse{
		Engine:             s.broker.Status(),
		Capability:         s.monitor.Check(),
		ModelPath:          s.modelPath,
		GradesTotal:        grades,
		GradeFailuresTotal: failures,
		EnginesBuilt:       built,
		EnginesDestroyed:   destroyed,
		UptimeSeconds:      int64(now.Sub(s.startTime).Seconds()),
		ServerTimeUnix:     now.Unix(),
	}
}
