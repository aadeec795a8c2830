// Package pipeline orchestrates one CV analysis: it collects keyword,
// simulation and competitor results concurrently, then scores, recommends
// and verifies, and falls back to a local basic analysis when a stage fails.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/ats-scorer/internal/ai"
	"github.com/spigell/ats-scorer/internal/competitor"
	"github.com/spigell/ats-scorer/internal/cv"
	"github.com/spigell/ats-scorer/internal/keywords"
	"github.com/spigell/ats-scorer/internal/metrics"
	"github.com/spigell/ats-scorer/internal/recommend"
	"github.com/spigell/ats-scorer/internal/scoring"
	"github.com/spigell/ats-scorer/internal/simulation"
	"github.com/spigell/ats-scorer/internal/utils"
	"github.com/spigell/ats-scorer/internal/verify"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/spigell/ats-scorer/internal/pipeline")

// Analysis modes.
const (
	ModeFull  = "full"
	ModeBasic = "basic"
)

type KeywordAnalyzer interface {
	Analyze(ctx context.Context, req keywords.Request) (keywords.Analysis, error)
}

type Simulator interface {
	Simulate(in simulation.Input) []simulation.Result
}

type CompetitorAnalyzer interface {
	Analyze(ctx context.Context, req competitor.Request) (competitor.Analysis, error)
}

type Recommender interface {
	Recommend(in recommend.Input) []recommend.Recommendation
}

type Verifier interface {
	Verify(ctx context.Context, req verify.Request) (verify.Result, error)
}

// Request is one analysis request.
type Request struct {
	CV             *cv.ParsedCV
	TargetRole     string
	TargetKeywords []string
	JobDescription string
	Industry       string
}

// Result is the public analysis report.
type Result struct {
	Overall         int                        `json:"overall"`
	AdjustedOverall int                        `json:"adjustedOverall"`
	Breakdown       scoring.Breakdown          `json:"breakdown"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
	Keywords        KeywordSummary             `json:"keywords"`
	Verification    verify.Result              `json:"verification"`
	Score           scoring.AdvancedATSScore   `json:"score"`
	Metadata        Metadata                   `json:"metadata"`
}

type KeywordSummary struct {
	Found       []string      `json:"found"`
	Missing     []string      `json:"missing"`
	Recommended []string      `json:"recommended"`
	Density     float64       `json:"density"`
	Provenance  ai.Provenance `json:"provenance"`
}

type Metadata struct {
	AnalysisID       string        `json:"analysisId"`
	Timestamp        time.Time     `json:"timestamp"`
	Version          string        `json:"version"`
	Confidence       int           `json:"confidence"`
	Mode             string        `json:"mode"`
	Degraded         bool          `json:"degraded"`
	Error            string        `json:"error,omitempty"`
	Stages           []StageReport `json:"stages"`
	ValidationIssues []cv.Issue    `json:"validationIssues"`
}

// Deps are the collaborators of an Engine. Nil analyzers are replaced with
// their local-only variants.
type Deps struct {
	Keywords    KeywordAnalyzer
	Simulator   Simulator
	Competitor  CompetitorAnalyzer
	Recommender Recommender
	Verifier    Verifier
	Logger      *zap.Logger
	Metrics     *metrics.Recorder
	Version     string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Engine runs analyses. It holds no per-analysis state and is safe for
// concurrent use when its collaborators are.
type Engine struct {
	keywords    KeywordAnalyzer
	simulator   Simulator
	competitor  CompetitorAnalyzer
	recommender Recommender
	verifier    Verifier
	logger      *zap.Logger
	metrics     *metrics.Recorder
	version     string
	now         func() time.Time
}

// New creates an Engine.
func New(deps Deps) (*Engine, error) {
	e := &Engine{
		keywords:    deps.Keywords,
		simulator:   deps.Simulator,
		competitor:  deps.Competitor,
		recommender: deps.Recommender,
		verifier:    deps.Verifier,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		version:     deps.Version,
		now:         deps.Now,
	}

	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.keywords == nil {
		e.keywords = keywords.NewAnalyzer(nil, 0, e.logger)
	}
	if e.simulator == nil {
		sim, err := simulation.NewDefault(e.logger)
		if err != nil {
			return nil, fmt.Errorf("load ats profiles: %w", err)
		}
		e.simulator = sim
	}
	if e.competitor == nil {
		e.competitor = competitor.NewAnalyzer(nil, 0, e.logger)
	}
	if e.recommender == nil {
		e.recommender = recommend.New(e.logger)
	}
	if e.verifier == nil {
		e.verifier = verify.New(nil, nil, 0, e.logger)
	}
	if e.version == "" {
		e.version = "dev"
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// Analyze always returns a result. Stage failures and panics are answered
// with the basic analysis, which is marked degraded.
func (e *Engine) Analyze(ctx context.Context, req Request) *Result {
	id := uuid.NewString()
	ctx, span := tracer.Start(ctx, "analyze")
	span.SetAttributes(attribute.String("analysis.id", id), attribute.String("industry", req.Industry))
	defer span.End()

	r := e.newRun(id)
	r.logger.Info("analysis started", zap.String("industry", req.Industry), zap.String("role", req.TargetRole))

	result, err := e.full(ctx, r, req)
	if err != nil {
		r.fail(err)
		result = e.basic(ctx, r, req, err)
	}

	result.Metadata.AnalysisID = id
	result.Metadata.Timestamp = e.now().UTC()
	result.Metadata.Stages = r.reports
	result.Metadata.ValidationIssues = validationIssues(req.CV)

	span.SetAttributes(
		attribute.String("mode", result.Metadata.Mode),
		attribute.Int("overall", result.Overall),
	)
	e.metrics.Analysis(result.Metadata.Mode)
	r.logger.Info("analysis finished",
		zap.String("mode", result.Metadata.Mode),
		zap.Int("overall", result.Overall),
		zap.Int("adjusted_overall", result.AdjustedOverall),
	)
	return result
}

type collected struct {
	keywords    keywords.Analysis
	simulations []simulation.Result
	competitor  competitor.Analysis
}

func (e *Engine) full(ctx context.Context, r *run, req Request) (result *Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			result, err = nil, fmt.Errorf("%s: panic: %v", r.state, p)
		}
	}()

	if req.CV == nil {
		return nil, fmt.Errorf("cv is required")
	}

	var c collected
	if err := r.stage(ctx, string(r.state), func(ctx context.Context, report *StageReport) error {
		var err error
		c, err = e.collect(ctx, req)
		if err != nil {
			return err
		}
		if c.keywords.Provenance.FellBack() {
			r.fallback(report, "keywords", "keyword analysis: "+c.keywords.Provenance.Reason)
		}
		if c.competitor.Provenance.FellBack() {
			r.fallback(report, "competitor", "competitor analysis: "+c.competitor.Provenance.Reason)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	r.advance()

	var score scoring.AdvancedATSScore
	if err := r.stage(ctx, string(r.state), func(context.Context, *StageReport) error {
		score = scoring.Score(scoring.Input{
			CV:          req.CV,
			Keywords:    c.keywords,
			Simulations: c.simulations,
			Competitor:  c.competitor,
		})
		return nil
	}); err != nil {
		return nil, err
	}
	r.advance()

	var recs []recommend.Recommendation
	if err := r.stage(ctx, string(r.state), func(context.Context, *StageReport) error {
		recs = e.recommender.Recommend(recommend.Input{CV: req.CV, Score: score, Keywords: c.keywords})
		return nil
	}); err != nil {
		return nil, err
	}
	r.advance()

	var verification verify.Result
	if err := r.stage(ctx, string(r.state), func(ctx context.Context, report *StageReport) error {
		var err error
		verification, err = e.verifier.Verify(ctx, verify.Request{
			Score:           score,
			Recommendations: recs,
			Industry:        keywords.NormalizeIndustry(req.Industry),
			TargetRole:      req.TargetRole,
		})
		if err != nil {
			return err
		}
		if verification.LLMComparison.AssessmentA == verify.Unavailable {
			r.fallback(report, "verify", "verification services unavailable")
		}
		return nil
	}); err != nil {
		return nil, err
	}
	r.advance()

	adjusted := score.Overall
	if verification.Verified {
		adjusted = utils.Percent(float64(score.Overall + verification.Consensus.ScoreAdjustment))
	}

	return &Result{
		Overall:         score.Overall,
		AdjustedOverall: adjusted,
		Breakdown:       score.Breakdown,
		Recommendations: recs,
		Keywords:        summarize(c.keywords),
		Verification:    verification,
		Score:           score,
		Metadata: Metadata{
			Version:    e.version,
			Confidence: int(math.Round(float64(score.Confidence+verification.Confidence) / 2)),
			Mode:       ModeFull,
		},
	}, nil
}

// collect runs keyword analysis, simulation and competitor analysis
// concurrently. Each goroutine writes only its own field.
func (e *Engine) collect(ctx context.Context, req Request) (collected, error) {
	var c collected
	g, ctx := errgroup.WithContext(ctx)

	kwReq := keywords.Request{
		CV:             req.CV,
		TargetKeywords: req.TargetKeywords,
		TargetRole:     req.TargetRole,
		JobDescription: req.JobDescription,
		Industry:       req.Industry,
	}

	g.Go(guard("keywords", func() error {
		var err error
		c.keywords, err = e.keywords.Analyze(ctx, kwReq)
		return err
	}))
	g.Go(guard("simulation", func() error {
		// Density does not depend on the generated enrichment, so the local
		// analysis is enough here.
		density := keywords.LocalAnalysis(kwReq).Density
		c.simulations = e.simulator.Simulate(simulation.Input{CV: req.CV, Density: density})
		return nil
	}))
	g.Go(guard("competitor", func() error {
		var err error
		c.competitor, err = e.competitor.Analyze(ctx, competitor.Request{
			CV:         req.CV,
			Industry:   req.Industry,
			TargetRole: req.TargetRole,
		})
		return err
	}))

	if err := g.Wait(); err != nil {
		return collected{}, err
	}
	return c, nil
}

func guard(name string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("%s: panic: %v", name, p)
			}
		}()
		if err := fn(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
}

func summarize(a keywords.Analysis) KeywordSummary {
	return KeywordSummary{
		Found:       a.Found,
		Missing:     a.Missing,
		Recommended: a.Recommended,
		Density:     a.Density,
		Provenance:  a.Provenance,
	}
}

func validationIssues(c *cv.ParsedCV) []cv.Issue {
	issues := cv.Validate(c)
	if issues == nil {
		return []cv.Issue{}
	}
	return issues
}
