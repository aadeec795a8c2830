package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/spigell/ats-scorer/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// State is a step of the analysis state machine.
type State string

const (
	StateCollecting   State = "collecting"
	StateScoring      State = "scoring"
	StateRecommending State = "recommending"
	StateVerifying    State = "verifying"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// next lists the forward transitions; failed is reachable from every state
// except done.
var next = map[State]State{
	StateCollecting:   StateScoring,
	StateScoring:      StateRecommending,
	StateRecommending: StateVerifying,
	StateVerifying:    StateDone,
}

// StageReport describes how one stage ran.
type StageReport struct {
	Name       string `json:"name"`
	State      string `json:"state"`
	DurationMS int64  `json:"durationMs"`
	Fallback   bool   `json:"fallback"`
	Reason     string `json:"reason,omitempty"`
}

// Stage report states.
const (
	stageDone   = "done"
	stageFailed = "failed"
)

// run is the bookkeeping of one analysis: current state and stage reports.
type run struct {
	id      string
	state   State
	reports []StageReport
	engine  *Engine
	logger  *zap.Logger
}

func (e *Engine) newRun(id string) *run {
	return &run{
		id:     id,
		state:  StateCollecting,
		engine: e,
		logger: logger.WithFields(e.logger, logger.StringFields(logger.StringField{Key: logger.FieldAnalysisID, Value: id})...),
	}
}

func (r *run) advance() {
	to, ok := next[r.state]
	if !ok {
		return
	}
	r.logger.Debug("analysis state", zap.String("from", string(r.state)), zap.String("to", string(to)))
	r.state = to
}

func (r *run) fail(err error) {
	if r.state == StateDone || r.state == StateFailed {
		return
	}
	r.logger.Warn("analysis failed, switching to basic analysis", zap.String("from", string(r.state)), zap.Error(err))
	r.state = StateFailed
}

// stage executes fn as the named stage, with its own span, timing, report
// and panic recovery. fn may mark its report as a fallback.
func (r *run) stage(ctx context.Context, name string, fn func(ctx context.Context, report *StageReport) error) (err error) {
	ctx, span := tracer.Start(ctx, "stage."+name, trace.WithAttributes(
		attribute.String("analysis.id", r.id),
		attribute.String("stage", name),
	))
	defer span.End()

	log := logger.ForStage(r.engine.logger, r.id, name)
	report := StageReport{Name: name, State: stageDone}
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s: panic: %v", name, p)
		}

		report.DurationMS = time.Since(start).Milliseconds()
		if err != nil {
			report.State = stageFailed
			report.Reason = err.Error()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error("stage failed", zap.Error(err))
		} else {
			log.Debug("stage finished", zap.Int64("duration_ms", report.DurationMS), zap.Bool("fallback", report.Fallback))
		}
		span.SetAttributes(attribute.Bool("fallback", report.Fallback))

		r.engine.metrics.ObserveStage(name, report.State, time.Since(start))
		r.reports = append(r.reports, report)
	}()

	return fn(ctx, &report)
}

// fallback marks a stage report and counts the fallback.
func (r *run) fallback(report *StageReport, component, reason string) {
	report.Fallback = true
	if report.Reason == "" {
		report.Reason = reason
	} else {
		report.Reason += "; " + reason
	}
	r.engine.metrics.Fallback(component, "local")
}
